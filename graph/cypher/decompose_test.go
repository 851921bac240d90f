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
	"errors"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/lpg/graph"
)

func shapesOf(subs []subQuery) []shape {
	var out []shape
	for _, s := range subs {
		out = append(out, s.shape)
	}
	return out
}

func TestDecomposeShapes(t *testing.T) {
	cases := []struct {
		name    string
		pattern quad.Quad
		shapes  []shape
	}{
		{"all", tr(nil, nil, nil), []shape{shapeType, shapeRelationship, shapeLiteral}},
		{"subject", tr(exIsaac, nil, nil), []shape{shapeType, shapeRelationship, shapeLiteral}},
		{"type predicate", tr(exIsaac, rdfType, nil), []shape{shapeType, shapeLiteral}},
		{"type", tr(nil, rdfType, exPerson), []shape{shapeType}},
		{"literal type", tr(nil, rdfType, quad.String("Person")), []shape{shapeLiteral}},
		{"predicate", tr(nil, exName, nil), []shape{shapeRelationship, shapeLiteral}},
		{"literal object", tr(nil, nil, quad.String("Isaac")), []shape{shapeLiteral}},
		{"resource object", tr(nil, nil, exJacob), []shape{shapeType, shapeRelationship}},
		{"full link", tr(exIsaac, exFather, exJacob), []shape{shapeRelationship}},
		{"full literal", tr(exIsaac, exAge, quad.Int(60)), []shape{shapeLiteral}},
		{"literal subject", tr(quad.String("x"), nil, nil), nil},
		{"bnode predicate", tr(nil, quad.BNode("p"), nil), nil},
	}
	for _, c := range cases {
		require.Equal(t, c.shapes, shapesOf(decompose(c.pattern)), c.name)
	}
}

func TestDecomposeQueries(t *testing.T) {
	subs := decompose(tr(exIsaac, nil, nil))
	require.Len(t, subs, 3)
	require.Equal(t, Statement{
		Query:  "MATCH (s:Resource {uri: $s}) RETURN s.uri, labels(s)",
		Params: Params{"s": string(exIsaac)},
	}, subs[0].stmt)
	require.Equal(t, Statement{
		Query:  "MATCH (s:Resource {uri: $s})-[r]->(o:Resource) RETURN s.uri, type(r), o.uri",
		Params: Params{"s": string(exIsaac)},
	}, subs[1].stmt)
	require.Equal(t, Statement{
		Query:  "MATCH (s:Resource {uri: $s}) RETURN s",
		Params: Params{"s": string(exIsaac)},
	}, subs[2].stmt)

	subs = decompose(tr(nil, exFather, exJacob))
	require.Equal(t, Statement{
		Query:  "MATCH (s:Resource)-[r:`http://example.org/fatherOf`]->(o:Resource {uri: $o}) RETURN s.uri, type(r), o.uri",
		Params: Params{"o": string(exJacob)},
	}, subs[0].stmt)

	subs = decompose(tr(nil, rdfType, exPerson))
	require.Equal(t, "MATCH (s:Resource:`http://example.org/Person`) RETURN s.uri, labels(s)", subs[0].stmt.Query)

	subs = decompose(tr(nil, exName, nil))
	require.Equal(t, "MATCH (s:Resource) WHERE s.`http://example.org/name` IS NOT NULL RETURN s", subs[1].stmt.Query)

	subs = decompose(tr(nil, exName, quad.String("Isaac")))
	require.Equal(t, "MATCH (s:Resource) WHERE s.`http://example.org/name` = $v"+
		" AND coalesce(s.`http://example.org/name__datatype`, '') = coalesce($dt, '')"+
		" AND coalesce(s.`http://example.org/name__lang`, '') = coalesce($lang, '')"+
		" RETURN s", subs[0].stmt.Query)
	require.Equal(t, Params{"v": "Isaac", "dt": nil, "lang": nil}, subs[0].stmt.Params)
}

var isaacNode = Node{
	Labels: []string{LabelResource, string(exPerson)},
	Props: map[string]interface{}{
		FieldURI:                       string(exIsaac),
		string(exName):                 "Isaac",
		string(exAge):                  int64(60),
		string(exAge) + suffixDatatype: dtInteger,
	},
}

// respondIsaac answers every sub-query kind with data about Isaac.
func respondIsaac(query string, params Params) ([][]interface{}, error) {
	switch {
	case strings.Contains(query, "labels(s)"):
		return [][]interface{}{{
			string(exIsaac), []interface{}{LabelResource, string(exPerson), string(exPatriar)},
		}}, nil
	case strings.Contains(query, "type(r)"):
		return [][]interface{}{{string(exIsaac), string(exFather), string(exJacob)}}, nil
	case strings.HasSuffix(query, "RETURN s"):
		return [][]interface{}{{isaacNode}}, nil
	}
	return nil, nil
}

func TestFindAll(t *testing.T) {
	ctx := context.TODO()
	qs, conn := newTestStore(t, nil)
	conn.respond = respondIsaac

	out, err := graph.ReadAll(ctx, qs.Find(ctx, quad.Quad{}))
	require.NoError(t, err)
	require.Equal(t, []quad.Quad{
		tr(exIsaac, rdfType, exPerson),
		tr(exIsaac, rdfType, exPatriar),
		tr(exIsaac, exFather, exJacob),
		tr(exIsaac, exAge, quad.Int(60)),
		tr(exIsaac, exName, quad.String("Isaac")),
	}, out)
	require.Len(t, conn.stmts, 3)
}

func TestFindFilters(t *testing.T) {
	ctx := context.TODO()
	qs, conn := newTestStore(t, nil)
	conn.respond = respondIsaac

	out, err := graph.ReadAll(ctx, qs.Find(ctx, tr(nil, rdfType, exPatriar)))
	require.NoError(t, err)
	require.Equal(t, []quad.Quad{tr(exIsaac, rdfType, exPatriar)}, out)

	out, err = graph.ReadAll(ctx, qs.Find(ctx, tr(nil, exAge, nil)))
	require.NoError(t, err)
	require.Equal(t, []quad.Quad{tr(exIsaac, exFather, exJacob), tr(exIsaac, exAge, quad.Int(60))}, out,
		"the fake ignores predicate filters of relationships")

	out, err = graph.ReadAll(ctx, qs.Find(ctx, tr(nil, nil, typed("60", dtInteger))))
	require.NoError(t, err)
	require.Equal(t, []quad.Quad{tr(exIsaac, exAge, quad.Int(60))}, out)

	conn.reset()
	out, err = graph.ReadAll(ctx, qs.Find(ctx, tr(quad.Int(1), nil, nil)))
	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, conn.stmts, "impossible patterns never reach the database")
}

func TestFindLazy(t *testing.T) {
	ctx := context.TODO()
	qs, conn := newTestStore(t, nil)
	conn.respond = respondIsaac

	it := qs.Find(ctx, quad.Quad{})
	require.Empty(t, conn.stmts)
	require.True(t, it.Next(ctx))
	require.True(t, it.Next(ctx))
	require.Len(t, conn.stmts, 1, "next sub-query is sent only after the first one is drained")
	require.True(t, it.Next(ctx))
	require.Len(t, conn.stmts, 2)
	require.NoError(t, it.Close())
	require.False(t, it.Next(ctx))
	require.Len(t, conn.stmts, 2)
}

func TestFindError(t *testing.T) {
	ctx := context.TODO()
	qs, conn := newTestStore(t, nil)
	boom := errors.New("connection reset")
	conn.respond = func(query string, params Params) ([][]interface{}, error) {
		if strings.Contains(query, "type(r)") {
			return nil, boom
		}
		return respondIsaac(query, params)
	}

	it := qs.Find(ctx, quad.Quad{})
	var n int
	for it.Next(ctx) {
		n++
	}
	require.Equal(t, 2, n)
	require.True(t, errors.Is(it.Err(), boom))
	require.NoError(t, it.Close())
}

func TestNodeLiteralsSkipsMeta(t *testing.T) {
	const label = "http://x/label"
	n := Node{Props: map[string]interface{}{
		FieldURI:               "_:b0",
		label:                  "chat",
		label + suffixDatatype: dtLangString,
		label + suffixLang:     "fr",
	}}
	require.Equal(t, []quad.Quad{
		tr(quad.BNode("b0"), quad.IRI(label), quad.LangString{Value: "chat", Lang: "fr"}),
	}, nodeLiterals(n, "", nil))
	require.Nil(t, nodeLiterals(Node{Props: map[string]interface{}{"x": "y"}}, "", nil), "nodes without identity are skipped")
	require.Nil(t, nodeLiterals("not a node", "", nil))
}
