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
	"sort"

	"github.com/cayleygraph/quad"
)

// subQuery is one of the queries a triple pattern is decomposed into.
type subQuery struct {
	shape  shape
	stmt   Statement
	decode func(row []interface{}) []quad.Quad
}

// decompose splits a triple pattern into sub-queries, one per storage shape
// that can hold matching triples. Nil pattern components are wildcards.
//
// A pattern that cannot match any stored triple, like one with a literal
// subject, gives no sub-queries.
func decompose(pattern quad.Quad) []subQuery {
	s, p, o := pattern.Subject, pattern.Predicate, pattern.Object
	if s != nil && !isResource(s) {
		return nil
	}
	if p != nil {
		if _, ok := p.(quad.IRI); !ok {
			return nil
		}
	}
	if o != nil && !isResource(o) && !isLiteral(o) {
		return nil
	}

	var subs []subQuery
	if (p == nil || isTypePredicate(p)) && (o == nil || isResource(o)) {
		subs = append(subs, typeQuery(s, o))
	}
	if (p == nil || !isTypePredicate(p)) && (o == nil || isResource(o)) {
		subs = append(subs, relationshipQuery(s, p, o))
	}
	if o == nil || isLiteral(o) {
		subs = append(subs, propertyQuery(s, p, o))
	}
	return subs
}

func subjectParam(s quad.Value, params Params) string {
	if s == nil {
		return ""
	}
	params["s"] = nodeID(s)
	return "$s"
}

func typeQuery(s, o quad.Value) subQuery {
	params := Params{}
	var labels []string
	if o != nil {
		labels = []string{nodeID(o)}
	}
	query := "MATCH " + nodePattern("s", subjectParam(s, params), labels...) +
		" RETURN s." + FieldURI + ", labels(s)"
	return subQuery{
		shape: shapeType,
		stmt:  Statement{Query: query, Params: params},
		decode: func(row []interface{}) []quad.Quad {
			if len(row) < 2 {
				return nil
			}
			id, ok := row[0].(string)
			if !ok {
				return nil
			}
			list, _ := row[1].([]interface{})
			var out []quad.Quad
			for _, l := range list {
				label, ok := l.(string)
				if !ok || label == LabelResource {
					continue
				}
				if o != nil && label != nodeID(o) {
					continue
				}
				out = append(out, quad.Quad{
					Subject:   nodeValue(id),
					Predicate: rdfType,
					Object:    nodeValue(label),
				})
			}
			return out
		},
	}
}

func relationshipQuery(s, p, o quad.Value) subQuery {
	params := Params{}
	rel := "[r]"
	if p != nil {
		rel = "[r:" + quoteIdent(propertyKey(p)) + "]"
	}
	var oparam string
	if o != nil {
		params["o"] = nodeID(o)
		oparam = "$o"
	}
	query := "MATCH " + nodePattern("s", subjectParam(s, params)) + "-" + rel + "->" + nodePattern("o", oparam) +
		" RETURN s." + FieldURI + ", type(r), o." + FieldURI
	return subQuery{
		shape: shapeRelationship,
		stmt:  Statement{Query: query, Params: params},
		decode: func(row []interface{}) []quad.Quad {
			if len(row) < 3 {
				return nil
			}
			sid, ok1 := row[0].(string)
			typ, ok2 := row[1].(string)
			oid, ok3 := row[2].(string)
			if !ok1 || !ok2 || !ok3 {
				return nil
			}
			return []quad.Quad{{
				Subject:   nodeValue(sid),
				Predicate: quad.IRI(typ),
				Object:    nodeValue(oid),
			}}
		},
	}
}

func propertyQuery(s, p, o quad.Value) subQuery {
	params := Params{}
	query := "MATCH " + nodePattern("s", subjectParam(s, params))
	var key string
	if p != nil {
		key = propertyKey(p)
		if o != nil {
			lit, _ := encodeLiteral(o)
			params["v"], params["dt"], params["lang"] = lit.Value, lit.datatypeParam(), lit.langParam()
			query += " WHERE " + literalGuard("s", key, "$v", "$dt", "$lang")
		} else {
			query += " WHERE " + prop("s", key) + " IS NOT NULL"
		}
	}
	query += " RETURN s"
	return subQuery{
		shape: shapeLiteral,
		stmt:  Statement{Query: query, Params: params},
		decode: func(row []interface{}) []quad.Quad {
			if len(row) < 1 {
				return nil
			}
			return nodeLiterals(row[0], key, o)
		},
	}
}

// nodeLiterals reconstructs literal triples from node properties.
// Non-empty key and non-nil object restrict the output.
func nodeLiterals(v interface{}, key string, o quad.Value) []quad.Quad {
	n, ok := v.(Node)
	if !ok {
		return nil
	}
	id, ok := n.Props[FieldURI].(string)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		if isMetaKey(k) || (key != "" && k != key) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []quad.Quad
	for _, k := range keys {
		dt, _ := n.Props[k+suffixDatatype].(string)
		lang, _ := n.Props[k+suffixLang].(string)
		lit := decodeLiteral(n.Props[k], dt, lang)
		if o != nil && !sameLiteral(o, lit) {
			continue
		}
		out = append(out, quad.Quad{
			Subject:   nodeValue(id),
			Predicate: quad.IRI(k),
			Object:    lit,
		})
	}
	return out
}

// Each body binds x to one stored triple.
var tripleBodies = []string{
	"MATCH " + nodePattern("", "") + "-[x]->" + nodePattern("", ""),
	"MATCH " + nodePattern("s", "") + " UNWIND labels(s) AS x WITH x WHERE x <> '" + LabelResource + "'",
	"MATCH " + nodePattern("s", "") + " UNWIND keys(s) AS x WITH x WHERE x <> '" + FieldURI + "'" +
		" AND NOT x ENDS WITH '" + suffixDatatype + "' AND NOT x ENDS WITH '" + suffixLang + "'",
}

func countStatements() []Statement {
	out := make([]Statement, 0, len(tripleBodies))
	for _, b := range tripleBodies {
		out = append(out, Statement{Query: b + " RETURN count(x)"})
	}
	return out
}

func existsStatements() []Statement {
	out := make([]Statement, 0, len(tripleBodies))
	for _, b := range tripleBodies {
		out = append(out, Statement{Query: b + " RETURN 1 LIMIT 1"})
	}
	return out
}
