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

// Package graphmock provides an in-memory graph for tests.
package graphmock

import (
	"context"
	"sort"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/lpg/graph"
)

var _ graph.Graph = (*Store)(nil)

// Store is a mocked version of the Graph interface, for use in tests.
// Labels of quads are dropped.
type Store struct {
	quads  map[quad.Quad]struct{}
	tx     *graph.Transaction
	Closed bool
}

func New(quads ...quad.Quad) *Store {
	s := &Store{quads: make(map[quad.Quad]struct{})}
	for _, q := range quads {
		s.quads[triple(q)] = struct{}{}
	}
	return s
}

func triple(q quad.Quad) quad.Quad {
	q.Label = nil
	return q
}

func (s *Store) apply(d graph.Delta) error {
	if !d.Quad.IsValid() {
		return &graph.DeltaError{Delta: d, Err: graph.ErrInvalidQuad}
	}
	switch d.Action {
	case graph.Add:
		s.quads[triple(d.Quad)] = struct{}{}
	case graph.Delete:
		delete(s.quads, triple(d.Quad))
	default:
		return &graph.DeltaError{Delta: d, Err: graph.ErrInvalidAction}
	}
	return nil
}

func (s *Store) AddQuad(ctx context.Context, q quad.Quad) error {
	if s.tx != nil {
		s.tx.AddQuad(q)
		return nil
	}
	return s.apply(graph.Delta{Quad: q, Action: graph.Add})
}

func (s *Store) RemoveQuad(ctx context.Context, q quad.Quad) error {
	if s.tx != nil {
		s.tx.RemoveQuad(q)
		return nil
	}
	return s.apply(graph.Delta{Quad: q, Action: graph.Delete})
}

func (s *Store) ApplyDeltas(ctx context.Context, in []graph.Delta) error {
	for _, d := range in {
		if err := s.apply(d); err != nil {
			return err
		}
	}
	return nil
}

func matches(pattern, q quad.Quad) bool {
	return (pattern.Subject == nil || pattern.Subject == q.Subject) &&
		(pattern.Predicate == nil || pattern.Predicate == q.Predicate) &&
		(pattern.Object == nil || pattern.Object == q.Object)
}

// Find returns matching quads sorted by their string form.
func (s *Store) Find(ctx context.Context, pattern quad.Quad) graph.Iterator {
	var out []quad.Quad
	for q := range s.quads {
		if matches(pattern, q) {
			out = append(out, q)
		}
	}
	sort.Sort(quad.ByQuadString(out))
	return &Iterator{quads: out}
}

func (s *Store) Contains(ctx context.Context, q quad.Quad) (bool, error) {
	_, ok := s.quads[triple(q)]
	return ok, nil
}

func (s *Store) Size(ctx context.Context) (int64, error) {
	return int64(len(s.quads)), nil
}

func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	return len(s.quads) == 0, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.quads = make(map[quad.Quad]struct{})
	return nil
}

func (s *Store) BeginTransaction() error {
	if s.tx != nil {
		return &graph.TxError{Op: "begin", State: graph.TxOpen}
	}
	s.tx = graph.NewTransaction()
	return nil
}

func (s *Store) Commit(ctx context.Context) error {
	if s.tx == nil {
		return &graph.TxError{Op: "commit", State: graph.TxIdle}
	}
	tx := s.tx
	s.tx = nil
	return s.ApplyDeltas(ctx, tx.Deltas)
}

func (s *Store) Abort() error {
	if s.tx == nil {
		return &graph.TxError{Op: "abort", State: graph.TxIdle}
	}
	s.tx = nil
	return nil
}

func (s *Store) TransactionsSupported() bool { return true }

func (s *Store) Close() error {
	s.Closed = true
	return nil
}

// Iterator iterates over a fixed list of quads.
type Iterator struct {
	quads []quad.Quad
	cur   quad.Quad
}

func (it *Iterator) Next(ctx context.Context) bool {
	if len(it.quads) == 0 {
		return false
	}
	it.cur, it.quads = it.quads[0], it.quads[1:]
	return true
}

func (it *Iterator) Result() quad.Quad { return it.cur }

func (it *Iterator) Err() error { return nil }

func (it *Iterator) Close() error {
	it.quads = nil
	return nil
}
