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
	"github.com/cayleygraph/quad/voc/rdf"

	"github.com/cayleygraph/lpg/graph"
)

const (
	// LabelResource is the label of every node that represents an RDF resource.
	LabelResource = "Resource"
	// FieldURI is the node property that holds the resource identifier.
	FieldURI = "uri"

	suffixDatatype = "__datatype"
	suffixLang     = "__lang"

	bnodePrefix = "_:"
)

var rdfType = quad.IRI(rdf.NS + "type")

// shape is the way a triple is stored in the property graph.
type shape int

const (
	// shapeLiteral is a property of the subject node.
	shapeLiteral = shape(iota)
	// shapeType is a label of the subject node.
	shapeType
	// shapeRelationship is a typed edge between subject and object nodes.
	shapeRelationship
)

func (s shape) String() string {
	switch s {
	case shapeLiteral:
		return "literal"
	case shapeType:
		return "type"
	case shapeRelationship:
		return "relationship"
	}
	return "unknown"
}

// classify returns a storage shape for a valid triple.
func classify(q quad.Quad) shape {
	switch {
	case isLiteral(q.Object):
		return shapeLiteral
	case isTypePredicate(q.Predicate):
		return shapeType
	default:
		return shapeRelationship
	}
}

// validate checks that the triple can be stored.
func validate(q quad.Quad) error {
	if !isResource(q.Subject) {
		return ErrInvalidSubject
	}
	if _, ok := q.Predicate.(quad.IRI); !ok {
		return ErrInvalidPredicate
	}
	if !isResource(q.Object) && !isLiteral(q.Object) {
		return ErrInvalidObject
	}
	return nil
}

var (
	ErrInvalidSubject   = invalidQuad("subject must be an IRI or a blank node")
	ErrInvalidPredicate = invalidQuad("predicate must be an IRI")
	ErrInvalidObject    = invalidQuad("object must be an IRI, a blank node or a literal")
)

type invalidQuad string

func (e invalidQuad) Error() string { return string(e) }

func (e invalidQuad) Unwrap() error { return graph.ErrInvalidQuad }

func isTypePredicate(v quad.Value) bool {
	iri, ok := v.(quad.IRI)
	return ok && iri.Full() == rdfType
}

func isResource(v quad.Value) bool {
	switch v.(type) {
	case quad.IRI, quad.BNode:
		return true
	}
	return false
}

func isLiteral(v quad.Value) bool {
	switch v.(type) {
	case quad.String, quad.TypedString, quad.LangString,
		quad.Int, quad.Float, quad.Bool, quad.Time:
		return true
	}
	return false
}

// nodeID returns an identity property value for a resource.
func nodeID(v quad.Value) string {
	switch v := v.(type) {
	case quad.IRI:
		return string(v)
	case quad.BNode:
		return bnodePrefix + string(v)
	}
	return ""
}

// nodeValue is the inverse of nodeID.
func nodeValue(id string) quad.Value {
	if strings.HasPrefix(id, bnodePrefix) {
		return quad.BNode(id[len(bnodePrefix):])
	}
	return quad.IRI(id)
}

// propertyKey returns a property key or a relationship type for a predicate.
func propertyKey(p quad.Value) string {
	if isTypePredicate(p) {
		return string(rdfType)
	}
	iri, _ := p.(quad.IRI)
	return string(iri)
}

// isMetaKey reports whether a node property is bookkeeping and never a triple.
func isMetaKey(k string) bool {
	return k == FieldURI || strings.HasSuffix(k, suffixDatatype) || strings.HasSuffix(k, suffixLang)
}
