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
	"strings"

	"github.com/cayleygraph/quad"
)

// nodePattern returns a node pattern matching a resource by identifier.
// A non-empty param is a Cypher expression for the identifier.
func nodePattern(v string, param string, labels ...string) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(v)
	b.WriteString(":")
	b.WriteString(LabelResource)
	for _, l := range labels {
		b.WriteString(":")
		b.WriteString(quoteIdent(l))
	}
	if param != "" {
		b.WriteString(" {" + FieldURI + ": " + param + "}")
	}
	b.WriteString(")")
	return b.String()
}

func prop(v, key string) string {
	return v + "." + quoteIdent(key)
}

// setLiteral assigns a literal and its shadow fields. Null shadow values
// remove stale fields left by a previous value.
func setLiteral(v, key, val, dt, lang string) string {
	return prop(v, key) + " = " + val + ", " +
		prop(v, key+suffixDatatype) + " = " + dt + ", " +
		prop(v, key+suffixLang) + " = " + lang
}

func clearLiteral(v, key string) string {
	return prop(v, key) + " = NULL, " +
		prop(v, key+suffixDatatype) + " = NULL, " +
		prop(v, key+suffixLang) + " = NULL"
}

// literalGuard matches a node only if the stored literal equals the given one.
func literalGuard(v, key, val, dt, lang string) string {
	return prop(v, key) + " = " + val +
		" AND coalesce(" + prop(v, key+suffixDatatype) + ", '') = coalesce(" + dt + ", '')" +
		" AND coalesce(" + prop(v, key+suffixLang) + ", '') = coalesce(" + lang + ", '')"
}

func literalParams(q quad.Quad) Params {
	lit, _ := encodeLiteral(q.Object)
	return Params{
		"s":    nodeID(q.Subject),
		"v":    lit.Value,
		"dt":   lit.datatypeParam(),
		"lang": lit.langParam(),
	}
}

func linkParams(q quad.Quad) Params {
	return Params{"s": nodeID(q.Subject), "o": nodeID(q.Object)}
}

// encodeAdd returns a statement that stores a single valid triple.
func encodeAdd(q quad.Quad) Statement {
	p := propertyKey(q.Predicate)
	switch classify(q) {
	case shapeLiteral:
		return Statement{
			Query:  "MERGE " + nodePattern("s", "$s") + " SET " + setLiteral("s", p, "$v", "$dt", "$lang"),
			Params: literalParams(q),
		}
	case shapeType:
		return Statement{
			Query:  "MERGE " + nodePattern("s", "$s") + " SET s:" + quoteIdent(nodeID(q.Object)),
			Params: Params{"s": nodeID(q.Subject)},
		}
	default:
		return Statement{
			Query: "MERGE " + nodePattern("s", "$s") +
				" MERGE " + nodePattern("o", "$o") +
				" MERGE (s)-[:" + quoteIdent(p) + "]->(o)",
			Params: linkParams(q),
		}
	}
}

// encodeDelete returns a statement that removes a single valid triple.
// It matches nothing if the triple is not stored.
func encodeDelete(q quad.Quad) Statement {
	p := propertyKey(q.Predicate)
	switch classify(q) {
	case shapeLiteral:
		return Statement{
			Query: "MATCH " + nodePattern("s", "$s") +
				" WHERE " + literalGuard("s", p, "$v", "$dt", "$lang") +
				" SET " + clearLiteral("s", p),
			Params: literalParams(q),
		}
	case shapeType:
		return Statement{
			Query:  "MATCH " + nodePattern("s", "$s") + " REMOVE s:" + quoteIdent(nodeID(q.Object)),
			Params: Params{"s": nodeID(q.Subject)},
		}
	default:
		return Statement{
			Query:  "MATCH " + nodePattern("s", "$s") + "-[r:" + quoteIdent(p) + "]->" + nodePattern("o", "$o") + " DELETE r",
			Params: linkParams(q),
		}
	}
}

// encodeContains returns a statement that yields a row only if the triple is stored.
func encodeContains(q quad.Quad) Statement {
	p := propertyKey(q.Predicate)
	switch classify(q) {
	case shapeLiteral:
		return Statement{
			Query: "MATCH " + nodePattern("s", "$s") +
				" WHERE " + literalGuard("s", p, "$v", "$dt", "$lang") +
				" RETURN 1 LIMIT 1",
			Params: literalParams(q),
		}
	case shapeType:
		return Statement{
			Query:  "MATCH " + nodePattern("s", "$s", nodeID(q.Object)) + " RETURN 1 LIMIT 1",
			Params: Params{"s": nodeID(q.Subject)},
		}
	default:
		return Statement{
			Query:  "MATCH " + nodePattern("s", "$s") + "-[:" + quoteIdent(p) + "]->" + nodePattern("o", "$o") + " RETURN 1 LIMIT 1",
			Params: linkParams(q),
		}
	}
}
