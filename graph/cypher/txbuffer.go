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

import "github.com/cayleygraph/quad"

// txBuffer holds changes of an open transaction.
//
// Commit applies all adds and then all deletes. The buffer is kept in a form
// where this gives the same graph as applying the changes one by one:
// adding a triple cancels its pending delete and moves it to the end of the
// adds, deleting a triple keeps its pending add, so the delete runs after it.
type txBuffer struct {
	adds    orderedSet
	deletes orderedSet
}

func newTxBuffer() *txBuffer {
	return &txBuffer{
		adds:    newOrderedSet(),
		deletes: newOrderedSet(),
	}
}

func (b *txBuffer) add(q quad.Quad) {
	b.deletes.remove(q)
	b.adds.moveToBack(q)
}

func (b *txBuffer) remove(q quad.Quad) {
	b.deletes.pushOnce(q)
}

func (b *txBuffer) len() int {
	return b.adds.len() + b.deletes.len()
}

// storageKey identifies a triple by the way it is stored. Triples with
// equal keys, like an xsd:integer typed string and the same quad.Int, are
// one triple for the database.
type storageKey struct {
	shape     shape
	subject   string
	predicate string
	object    interface{}
	datatype  string
	lang      string
}

// keyOf returns a storage key of a valid triple.
func keyOf(q quad.Quad) storageKey {
	k := storageKey{
		shape:     classify(q),
		subject:   nodeID(q.Subject),
		predicate: propertyKey(q.Predicate),
	}
	if k.shape == shapeLiteral {
		lit, _ := encodeLiteral(q.Object)
		k.object, k.datatype, k.lang = lit.Value, lit.Datatype, lit.Lang
	} else {
		k.object = nodeID(q.Object)
	}
	return k
}

// orderedSet is a set of triples that remembers insertion order.
// Membership is decided by the storage key; the set keeps the last
// quad given for a key.
type orderedSet struct {
	seq   uint64
	order []seqQuad
	pos   map[storageKey]uint64
}

type seqQuad struct {
	q   quad.Quad
	seq uint64
}

func newOrderedSet() orderedSet {
	return orderedSet{pos: make(map[storageKey]uint64)}
}

func (s *orderedSet) moveToBack(q quad.Quad) {
	s.seq++
	s.pos[keyOf(q)] = s.seq
	s.order = append(s.order, seqQuad{q: q, seq: s.seq})
}

func (s *orderedSet) pushOnce(q quad.Quad) {
	if !s.has(q) {
		s.moveToBack(q)
	}
}

func (s *orderedSet) remove(q quad.Quad) {
	delete(s.pos, keyOf(q))
}

func (s *orderedSet) has(q quad.Quad) bool {
	_, ok := s.pos[keyOf(q)]
	return ok
}

func (s *orderedSet) len() int {
	return len(s.pos)
}

// list returns live quads in order. Stale entries left by moves and removals
// are skipped.
func (s *orderedSet) list() []quad.Quad {
	out := make([]quad.Quad, 0, len(s.pos))
	for _, e := range s.order {
		if seq, ok := s.pos[keyOf(e.q)]; ok && seq == e.seq {
			out = append(out, e.q)
		}
	}
	return out
}
