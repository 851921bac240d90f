// Copyright 2015 The Cayley Authors. All rights reserved.
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

package graph

import "github.com/cayleygraph/quad"

// Transaction stores a list of Deltas to apply to a Graph in one go.
//
// Adding and removing the same quad in one transaction cancel each other,
// so Deltas describes a difference against the state of the graph.
type Transaction struct {
	// Deltas stores the deltas in the right order
	Deltas []Delta
	// deltas stores the deltas in a map to avoid duplications
	deltas map[Delta]struct{}
}

// NewTransaction initialize a new transaction.
func NewTransaction() *Transaction {
	return &Transaction{Deltas: make([]Delta, 0, 10), deltas: make(map[Delta]struct{}, 10)}
}

// AddQuad adds a new quad to the transaction if it is not already present in it.
// If there is a 'remove' delta for that quad, it will remove that delta from
// the transaction instead of actually adding the quad.
func (t *Transaction) AddQuad(q quad.Quad) {
	t.push(Delta{Quad: q, Action: Add}, Delta{Quad: q, Action: Delete})
}

// RemoveQuad adds a quad to remove to the transaction.
// If there is an 'add' delta for that quad, it will remove that delta from
// the transaction instead of actually removing the quad.
func (t *Transaction) RemoveQuad(q quad.Quad) {
	t.push(Delta{Quad: q, Action: Delete}, Delta{Quad: q, Action: Add})
}

func (t *Transaction) push(d, opposite Delta) {
	if _, ok := t.deltas[d]; ok {
		return
	}
	if _, ok := t.deltas[opposite]; ok {
		t.deleteDelta(opposite)
		return
	}
	t.Deltas = append(t.Deltas, d)
	t.deltas[d] = struct{}{}
}

func (t *Transaction) deleteDelta(d Delta) {
	delete(t.deltas, d)
	for i, id := range t.Deltas {
		if id == d {
			t.Deltas = append(t.Deltas[:i], t.Deltas[i+1:]...)
			break
		}
	}
}

// TxState describes whether a graph has an open transaction.
type TxState int

const (
	TxIdle = TxState(iota)
	TxOpen
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxOpen:
		return "open"
	}
	return "unknown"
}

// TxError is returned when a transaction operation is called
// in a state that does not allow it.
type TxError struct {
	Op    string
	State TxState
}

func (e *TxError) Error() string {
	return "cannot " + e.Op + " in " + e.State.String() + " transaction state: " + ErrUnsupportedOperation.Error()
}

func (e *TxError) Unwrap() error { return ErrUnsupportedOperation }
