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

// Package cyphertest checks that a Cypher database behaves as a triple store.
package cyphertest

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/graph/cypher"
)

// DatabaseFunc starts a database and returns a connection to an empty graph.
type DatabaseFunc func(t testing.TB) (cypher.Conn, func())

type Config struct {
	// SkipHostile skips identifiers that need escaping.
	SkipHostile bool
}

func TestAll(t *testing.T, gen DatabaseFunc, conf *Config) {
	if conf == nil {
		conf = &Config{}
	}
	tests := []struct {
		name string
		fnc  func(t testing.TB, gen DatabaseFunc)
		skip bool
	}{
		{name: "round trip", fnc: TestRoundTrip},
		{name: "delete", fnc: TestDelete},
		{name: "types", fnc: TestTypes},
		{name: "typed literals", fnc: TestTypedLiterals},
		{name: "patterns", fnc: TestPatterns},
		{name: "transaction", fnc: TestTransaction},
		{name: "batch", fnc: TestBatch},
		{name: "orphans", fnc: TestOrphans},
		{name: "hostile", fnc: TestHostileIdentifiers, skip: conf.SkipHostile},
	}
	for _, c := range tests {
		t.Run(c.name, func(t *testing.T) {
			if c.skip {
				t.SkipNow()
			}
			c.fnc(t, gen)
		})
	}
}

// NewGraph opens a cleared graph on a new database.
func NewGraph(t testing.TB, gen DatabaseFunc, opts graph.Options) (*cypher.QuadStore, func()) {
	ctx := context.TODO()
	conn, closer := gen(t)
	qs, err := cypher.New(ctx, conn, opts)
	if err != nil {
		conn.Close()
		closer()
		require.FailNow(t, "create failed", "%v", err)
	}
	if err := qs.Clear(ctx); err != nil {
		qs.Close()
		closer()
		require.FailNow(t, "clear failed", "%v", err)
	}
	return qs, func() {
		qs.Close()
		closer()
	}
}

const (
	isaac     = quad.IRI("http://example.org/Isaac")
	jacob     = quad.IRI("http://example.org/Jacob")
	name      = quad.IRI("http://example.org/name")
	age       = quad.IRI("http://example.org/age")
	fatherOf  = quad.IRI("http://example.org/fatherOf")
	knows     = quad.IRI("http://example.org/knows")
	person    = quad.IRI("http://example.org/Person")
	patriarch = quad.IRI("http://example.org/Patriarch")
)

var rdfType = quad.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")

func tr(s, p, o quad.Value) quad.Quad {
	return quad.Quad{Subject: s, Predicate: p, Object: o}
}

// MakeQuadSet returns a small graph with every storage shape.
func MakeQuadSet() []quad.Quad {
	return []quad.Quad{
		tr(isaac, rdfType, person),
		tr(isaac, rdfType, patriarch),
		tr(jacob, rdfType, person),
		tr(isaac, name, quad.String("Isaac")),
		tr(jacob, name, quad.String("Jacob")),
		tr(isaac, age, quad.Int(60)),
		tr(isaac, fatherOf, jacob),
		tr(jacob, knows, isaac),
		tr(quad.BNode("b1"), knows, jacob),
	}
}

func sorted(quads []quad.Quad) []quad.Quad {
	out := append([]quad.Quad(nil), quads...)
	sort.Sort(quad.ByQuadString(out))
	return out
}

// Found returns all triples matching a pattern in a stable order.
func Found(t testing.TB, g graph.Graph, pattern quad.Quad) []quad.Quad {
	out, err := graph.ReadAll(context.TODO(), g.Find(context.TODO(), pattern))
	require.NoError(t, err)
	return sorted(out)
}

func ExpectFound(t testing.TB, g graph.Graph, pattern quad.Quad, exp []quad.Quad) {
	require.Equal(t, sorted(exp), Found(t, g, pattern), "pattern %v", pattern)
}

func expectSize(t testing.TB, g graph.Graph, n int64) {
	ctx := context.TODO()
	size, err := g.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, n, size, "unexpected graph size")
	empty, err := g.IsEmpty(ctx)
	require.NoError(t, err)
	require.Equal(t, n == 0, empty)
}

func addAll(t testing.TB, g graph.Graph, quads []quad.Quad) {
	ctx := context.TODO()
	for _, q := range quads {
		require.NoError(t, g.AddQuad(ctx, q))
	}
}

func TestRoundTrip(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	expectSize(t, g, 0)
	data := MakeQuadSet()
	addAll(t, g, data)
	expectSize(t, g, int64(len(data)))
	ExpectFound(t, g, quad.Quad{}, data)

	for _, q := range data {
		ok, err := g.Contains(ctx, q)
		require.NoError(t, err)
		require.True(t, ok, "%v", q)
	}
	ok, err := g.Contains(ctx, tr(isaac, name, quad.String("Jacob")))
	require.NoError(t, err)
	require.False(t, ok)

	// adding twice changes nothing
	addAll(t, g, data)
	expectSize(t, g, int64(len(data)))
}

func TestDelete(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	data := MakeQuadSet()
	addAll(t, g, data)

	require.NoError(t, g.RemoveQuad(ctx, tr(isaac, age, quad.Int(61))))
	expectSize(t, g, int64(len(data)))

	for i, q := range data {
		require.NoError(t, g.RemoveQuad(ctx, q))
		require.NoError(t, g.RemoveQuad(ctx, q))
		expectSize(t, g, int64(len(data)-i-1))
		ok, err := g.Contains(ctx, q)
		require.NoError(t, err)
		require.False(t, ok, "%v", q)
	}
	ExpectFound(t, g, quad.Quad{}, nil)
}

func TestTypes(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	addAll(t, g, []quad.Quad{
		tr(isaac, rdfType, person),
		tr(isaac, quad.IRI("rdf:type"), patriarch),
	})
	ExpectFound(t, g, tr(isaac, rdfType, nil), []quad.Quad{
		tr(isaac, rdfType, person),
		tr(isaac, rdfType, patriarch),
	})
	require.NoError(t, g.RemoveQuad(ctx, tr(isaac, rdfType, person)))
	ExpectFound(t, g, quad.Quad{}, []quad.Quad{tr(isaac, rdfType, patriarch)})

	// a literal type is a property, not a label
	addAll(t, g, []quad.Quad{tr(jacob, rdfType, quad.String("Person"))})
	ExpectFound(t, g, tr(nil, rdfType, nil), []quad.Quad{
		tr(isaac, rdfType, patriarch),
		tr(jacob, rdfType, quad.String("Person")),
	})
}

func TestTypedLiterals(t testing.TB, gen DatabaseFunc) {
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	values := []quad.Value{
		quad.String("plain"),
		quad.LangString{Value: "chat", Lang: "fr"},
		quad.Int(-42),
		quad.Float(2.5),
		quad.Bool(true),
		quad.Time(time.Date(2020, 5, 17, 9, 30, 0, 0, time.UTC)),
		quad.TypedString{Value: "POINT(1 2)", Type: "http://www.opengis.net/ont/geosparql#wktLiteral"},
		quad.TypedString{Value: "7", Type: "http://www.w3.org/2001/XMLSchema#long"},
	}
	var data []quad.Quad
	for i, v := range values {
		data = append(data, tr(isaac, quad.IRI(fmt.Sprintf("http://example.org/p%d", i)), v))
	}
	addAll(t, g, data)
	ExpectFound(t, g, quad.Quad{}, data)
	for _, q := range data {
		ExpectFound(t, g, tr(nil, nil, q.Object), []quad.Quad{q})
	}
	// an integer is not the string of its digits
	ExpectFound(t, g, tr(nil, nil, quad.String("-42")), nil)
}

func TestPatterns(t testing.TB, gen DatabaseFunc) {
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	data := MakeQuadSet()
	addAll(t, g, data)

	target := tr(isaac, fatherOf, jacob)
	for mask := 0; mask < 8; mask++ {
		var pattern quad.Quad
		if mask&1 != 0 {
			pattern.Subject = target.Subject
		}
		if mask&2 != 0 {
			pattern.Predicate = target.Predicate
		}
		if mask&4 != 0 {
			pattern.Object = target.Object
		}
		var exp []quad.Quad
		for _, q := range data {
			if matches(pattern, q) {
				exp = append(exp, q)
			}
		}
		ExpectFound(t, g, pattern, exp)
	}
	ExpectFound(t, g, tr(nil, name, quad.String("Jacob")), []quad.Quad{tr(jacob, name, quad.String("Jacob"))})
	ExpectFound(t, g, tr(nil, rdfType, person), []quad.Quad{tr(isaac, rdfType, person), tr(jacob, rdfType, person)})
	ExpectFound(t, g, tr(quad.BNode("b1"), nil, nil), []quad.Quad{tr(quad.BNode("b1"), knows, jacob)})
	ExpectFound(t, g, tr(quad.String("Isaac"), nil, nil), nil)
}

func matches(pattern, q quad.Quad) bool {
	return (pattern.Subject == nil || pattern.Subject == q.Subject) &&
		(pattern.Predicate == nil || pattern.Predicate == q.Predicate) &&
		(pattern.Object == nil || pattern.Object == q.Object)
}

func TestTransaction(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	require.True(t, g.TransactionsSupported())
	require.NoError(t, g.BeginTransaction())
	addAll(t, g, MakeQuadSet())
	expectSize(t, g, 0)
	require.NoError(t, g.Abort())
	expectSize(t, g, 0)

	require.NoError(t, g.BeginTransaction())
	addAll(t, g, MakeQuadSet())
	require.NoError(t, g.RemoveQuad(ctx, tr(isaac, age, quad.Int(60))))
	require.NoError(t, g.RemoveQuad(ctx, tr(jacob, knows, isaac)))
	require.NoError(t, g.AddQuad(ctx, tr(jacob, knows, isaac)))
	require.NoError(t, g.Commit(ctx))

	var exp []quad.Quad
	for _, q := range MakeQuadSet() {
		if q.Predicate != age {
			exp = append(exp, q)
		}
	}
	ExpectFound(t, g, quad.Quad{}, exp)
	require.True(t, graph.IsUnsupportedOperation(g.Commit(ctx)))
}

func TestBatch(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	g, closer := NewGraph(t, gen, graph.Options{cypher.OptMaxBatch: 7})
	defer closer()

	var data []quad.Quad
	for i := 0; i < 50; i++ {
		s := quad.IRI(fmt.Sprintf("http://example.org/n%d", i))
		data = append(data,
			tr(s, age, quad.Int(i)),
			tr(s, rdfType, person),
			tr(s, knows, isaac),
		)
	}
	require.NoError(t, g.BeginTransaction())
	addAll(t, g, data)
	require.NoError(t, g.Commit(ctx))
	expectSize(t, g, int64(len(data)))
	ExpectFound(t, g, quad.Quad{}, data)

	w := graph.NewRemover(ctx, g)
	_, err := w.WriteQuads(data[:30])
	require.NoError(t, err)
	require.NoError(t, w.Close())
	expectSize(t, g, int64(len(data)-30))
	ExpectFound(t, g, quad.Quad{}, data[30:])
}

// nodeCount returns the number of resource nodes, with or without triples.
func nodeCount(t testing.TB, conn cypher.Conn) int64 {
	ctx := context.TODO()
	rows, err := conn.Query(ctx, "MATCH (n:"+cypher.LabelResource+") RETURN count(n)", nil)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next(ctx), "no count returned: %v", rows.Err())
	vals := rows.Values()
	require.Len(t, vals, 1)
	n, ok := vals[0].(int64)
	require.True(t, ok, "unexpected count type: %T", vals[0])
	return n
}

func TestOrphans(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	conn, closer := gen(t)
	defer closer()
	g, err := cypher.New(ctx, conn, nil)
	require.NoError(t, err)
	defer g.Close()
	require.NoError(t, g.Clear(ctx))
	require.Zero(t, nodeCount(t, conn))

	q := tr(isaac, fatherOf, jacob)
	addAll(t, g, []quad.Quad{q})
	expectSize(t, g, 1)
	require.NoError(t, g.RemoveQuad(ctx, q))
	expectSize(t, g, 0)
	ExpectFound(t, g, quad.Quad{}, nil)
	require.Equal(t, int64(2), nodeCount(t, conn), "nodes stay after their last triple is deleted")

	addAll(t, g, MakeQuadSet())
	require.NoError(t, g.Clear(ctx))
	expectSize(t, g, 0)
	require.Zero(t, nodeCount(t, conn))
}

func TestHostileIdentifiers(t testing.TB, gen DatabaseFunc) {
	ctx := context.TODO()
	g, closer := NewGraph(t, gen, nil)
	defer closer()

	canary := tr(jacob, name, quad.String("Jacob"))
	data := []quad.Quad{
		canary,
		tr(isaac, quad.IRI("http://x/p`]->(o) DETACH DELETE o //"), jacob),
		tr(isaac, rdfType, quad.IRI("T` REMOVE s:Resource //")),
		tr(isaac, quad.IRI("http://x/`name`"), quad.String("'; MATCH (n) DETACH DELETE n //")),
		tr(quad.IRI("x\"}) DETACH DELETE s //"), name, quad.String("\"quoted\" \\ back")),
	}
	addAll(t, g, data)
	ExpectFound(t, g, quad.Quad{}, data)
	for _, q := range data {
		require.NoError(t, g.RemoveQuad(ctx, q))
	}
	expectSize(t, g, 0)
}
