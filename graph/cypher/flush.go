// Copyright 2024 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cypher

import (
	"context"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/lpg/graph"
)

// quadGroup is a set of triples that can be written by one bulk statement:
// they share a shape and a predicate, or a type for the type shape.
type quadGroup struct {
	shape shape
	key   string
	quads []quad.Quad
}

// groupQuads partitions triples into groups. Groups are returned in the
// order of their first member, and members keep their relative order.
func groupQuads(quads []quad.Quad) []*quadGroup {
	type groupKey struct {
		shape shape
		key   string
	}
	var (
		out   []*quadGroup
		index = make(map[groupKey]*quadGroup)
	)
	for _, q := range quads {
		k := groupKey{shape: classify(q)}
		if k.shape == shapeType {
			k.key = nodeID(q.Object)
		} else {
			k.key = propertyKey(q.Predicate)
		}
		g := index[k]
		if g == nil {
			g = &quadGroup{shape: k.shape, key: k.key}
			index[k] = g
			out = append(out, g)
		}
		g.quads = append(g.quads, q)
	}
	return out
}

const unwindRows = "UNWIND range(0, size($subjects) - 1) AS i WITH "

// batchStatement returns a single statement applying a procedure to all
// triples of the chunk. The triples must belong to the group.
func batchStatement(g *quadGroup, chunk []quad.Quad, p graph.Procedure) Statement {
	subjects := make([]interface{}, 0, len(chunk))
	for _, q := range chunk {
		subjects = append(subjects, nodeID(q.Subject))
	}
	switch g.shape {
	case shapeLiteral:
		values := make([]interface{}, 0, len(chunk))
		datatypes := make([]interface{}, 0, len(chunk))
		langs := make([]interface{}, 0, len(chunk))
		for _, q := range chunk {
			lit, _ := encodeLiteral(q.Object)
			values = append(values, lit.Value)
			datatypes = append(datatypes, lit.datatypeParam())
			langs = append(langs, lit.langParam())
		}
		query := unwindRows + "$subjects[i] AS su, $values[i] AS v, $datatypes[i] AS dt, $langs[i] AS lang "
		if p == graph.Add {
			query += "MERGE " + nodePattern("s", "su") + " SET " + setLiteral("s", g.key, "v", "dt", "lang")
		} else {
			query += "MATCH " + nodePattern("s", "su") +
				" WHERE " + literalGuard("s", g.key, "v", "dt", "lang") +
				" SET " + clearLiteral("s", g.key)
		}
		return Statement{Query: query, Params: Params{
			"subjects":  subjects,
			"values":    values,
			"datatypes": datatypes,
			"langs":     langs,
		}}
	case shapeType:
		query := "UNWIND $subjects AS su "
		if p == graph.Add {
			query += "MERGE " + nodePattern("s", "su") + " SET s:" + quoteIdent(g.key)
		} else {
			query += "MATCH " + nodePattern("s", "su") + " REMOVE s:" + quoteIdent(g.key)
		}
		return Statement{Query: query, Params: Params{"subjects": subjects}}
	default:
		objects := make([]interface{}, 0, len(chunk))
		for _, q := range chunk {
			objects = append(objects, nodeID(q.Object))
		}
		query := unwindRows + "$subjects[i] AS su, $objects[i] AS ob "
		rel := quoteIdent(g.key)
		if p == graph.Add {
			query += "MERGE " + nodePattern("s", "su") + " MERGE " + nodePattern("o", "ob") +
				" MERGE (s)-[:" + rel + "]->(o)"
		} else {
			query += "MATCH " + nodePattern("s", "su") + "-[r:" + rel + "]->" + nodePattern("o", "ob") + " DELETE r"
		}
		return Statement{Query: query, Params: Params{"subjects": subjects, "objects": objects}}
	}
}

// flush writes triples in bulk, one statement per chunk of at most
// maxBatch triples of the same group.
//
// Chunks are independent: on error the chunks before it stay applied.
func (qs *QuadStore) flush(ctx context.Context, quads []quad.Quad, p graph.Procedure) error {
	for _, g := range groupQuads(quads) {
		for start := 0; start < len(g.quads); start += qs.maxBatch {
			end := start + qs.maxBatch
			if end > len(g.quads) {
				end = len(g.quads)
			}
			stmt := batchStatement(g, g.quads[start:end], p)
			if err := qs.exec(ctx, stmt); err != nil {
				return fmt.Errorf("cypher: %v %d %v triples of %q: %w", p, end-start, g.shape, g.key, err)
			}
			mFlushBatchSize.WithLabelValues(g.shape.String()).Observe(float64(end - start))
		}
	}
	return nil
}
