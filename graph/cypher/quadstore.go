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

// Package cypher stores RDF triples in a labeled property graph database
// that speaks Cypher.
//
// Every resource is a node with the Resource label and a uri property.
// A triple is stored in one of three ways:
//
//   - a literal object becomes a property of the subject node, keyed by the
//     predicate IRI, with the datatype and language tag kept in shadow
//     properties;
//   - an rdf:type triple with a resource object becomes a label of the
//     subject node;
//   - any other triple becomes a relationship from the subject node to the
//     object node, typed by the predicate IRI.
//
// Literals are read back in their canonical Go form, as quad.AutoConvertTypedString
// does: a typed string of a known datatype like xsd:integer is returned as the
// native value (quad.Int), a time is returned in UTC and a language string
// without a tag is returned as quad.String. Compare literals by value, not
// with ==.
//
// A node holds at most one literal per predicate: adding a second literal
// for the same subject and predicate replaces the first one.
//
// Nodes are never removed when their last triple is deleted. They are not
// visible as triples and are removed only by Clear.
//
// The uri property and properties ending in __datatype or __lang are
// bookkeeping. Predicates with these names cannot be stored as literals.
package cypher

import (
	"context"
	"fmt"
	"math"

	"github.com/cayleygraph/quad"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
)

const (
	DefaultGraph    = "cayley"
	DefaultMaxBatch = 1000
)

// Options recognized by New and by the backend dialers.
const (
	OptGraph       = "graph"
	OptMaxBatch    = "max_batch"
	OptEnsureIndex = "ensure_index"
	OptUsername    = "username"
	OptPassword    = "password"
)

var _ graph.Graph = (*QuadStore)(nil)

// QuadStore is a graph.Graph backed by a Cypher connection.
//
// It is not safe for concurrent use.
type QuadStore struct {
	conn     Conn
	maxBatch int

	state graph.TxState
	tx    *txBuffer
}

// New creates a graph on top of an established connection. The connection
// is owned by the graph and is closed by Close.
//
// Unless the ensure_index option is false, New creates an index for the
// resource lookup. Failure to create the index is logged and ignored.
func New(ctx context.Context, conn Conn, opts graph.Options) (*QuadStore, error) {
	maxBatch, err := opts.IntKey(OptMaxBatch, DefaultMaxBatch)
	if err != nil {
		return nil, err
	} else if maxBatch <= 0 {
		return nil, fmt.Errorf("cypher: %s must be positive, got %d", OptMaxBatch, maxBatch)
	}
	ensure, err := opts.BoolKey(OptEnsureIndex, true)
	if err != nil {
		return nil, err
	}
	qs := &QuadStore{
		conn:     wrapConn(conn),
		maxBatch: maxBatch,
	}
	if ensure {
		if err := Init(ctx, qs.conn); err != nil {
			clog.Warningf("cypher: cannot create index on %s.%s: %v", LabelResource, FieldURI, err)
		}
	}
	return qs, nil
}

// Init creates the resource lookup index.
func Init(ctx context.Context, conn Conn) error {
	return conn.EnsureIndex(ctx, LabelResource, FieldURI)
}

func (qs *QuadStore) exec(ctx context.Context, stmt Statement) error {
	if clog.V(3) {
		clog.Infof("cypher: %v", stmt)
	}
	return qs.conn.Exec(ctx, stmt.Query, stmt.Params)
}

// AddQuad stores a triple, or buffers it if a transaction is open.
func (qs *QuadStore) AddQuad(ctx context.Context, q quad.Quad) error {
	return qs.apply(ctx, graph.Delta{Quad: q, Action: graph.Add})
}

// RemoveQuad deletes a triple, or buffers the deletion if a transaction is open.
// Deleting a literal removes the property only if it still holds that literal.
func (qs *QuadStore) RemoveQuad(ctx context.Context, q quad.Quad) error {
	return qs.apply(ctx, graph.Delta{Quad: q, Action: graph.Delete})
}

func (qs *QuadStore) apply(ctx context.Context, d graph.Delta) error {
	if err := validate(d.Quad); err != nil {
		return &graph.DeltaError{Delta: d, Err: err}
	}
	if qs.state == graph.TxOpen {
		qs.buffer(d)
		return nil
	}
	var stmt Statement
	switch d.Action {
	case graph.Add:
		stmt = encodeAdd(d.Quad)
	case graph.Delete:
		stmt = encodeDelete(d.Quad)
	default:
		return &graph.DeltaError{Delta: d, Err: graph.ErrInvalidAction}
	}
	if err := qs.exec(ctx, stmt); err != nil {
		return &graph.DeltaError{Delta: d, Err: err}
	}
	return nil
}

func (qs *QuadStore) buffer(d graph.Delta) {
	if d.Action == graph.Add {
		qs.tx.add(d.Quad)
	} else {
		qs.tx.remove(d.Quad)
	}
}

// ApplyDeltas applies all deltas with bulk statements. If a transaction
// is open, the deltas are added to it instead.
//
// All deltas are validated before anything is written.
func (qs *QuadStore) ApplyDeltas(ctx context.Context, in []graph.Delta) error {
	for _, d := range in {
		if d.Action != graph.Add && d.Action != graph.Delete {
			return &graph.DeltaError{Delta: d, Err: graph.ErrInvalidAction}
		}
		if err := validate(d.Quad); err != nil {
			return &graph.DeltaError{Delta: d, Err: err}
		}
	}
	if qs.state == graph.TxOpen {
		for _, d := range in {
			qs.buffer(d)
		}
		return nil
	}
	buf := newTxBuffer()
	for _, d := range in {
		if d.Action == graph.Add {
			buf.add(d.Quad)
		} else {
			buf.remove(d.Quad)
		}
	}
	return qs.commit(ctx, buf)
}

// Find returns an iterator over the triples matching a pattern.
// Nil components of the pattern match anything.
func (qs *QuadStore) Find(ctx context.Context, pattern quad.Quad) graph.Iterator {
	return newIterator(qs.conn, decompose(pattern))
}

func (qs *QuadStore) exists(ctx context.Context, stmt Statement) (bool, error) {
	if clog.V(3) {
		clog.Infof("cypher: %v", stmt)
	}
	rows, err := qs.conn.Query(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if rows.Next(ctx) {
		return true, nil
	}
	return false, rows.Err()
}

func (qs *QuadStore) Contains(ctx context.Context, q quad.Quad) (bool, error) {
	if validate(q) != nil {
		return false, nil
	}
	ok, err := qs.exists(ctx, encodeContains(q))
	if err != nil {
		return false, fmt.Errorf("cypher: contains: %w", err)
	}
	return ok, nil
}

func (qs *QuadStore) count(ctx context.Context, stmt Statement) (int64, error) {
	if clog.V(3) {
		clog.Infof("cypher: %v", stmt)
	}
	rows, err := qs.conn.Query(ctx, stmt.Query, stmt.Params)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next(ctx) {
		return 0, rows.Err()
	}
	vals := rows.Values()
	if len(vals) == 0 {
		return 0, nil
	}
	switch v := vals[0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected count value: %T", vals[0])
}

// Size returns the number of triples: literal properties, type labels and
// relationships. The sum saturates at math.MaxInt64.
func (qs *QuadStore) Size(ctx context.Context) (int64, error) {
	var total int64
	for _, stmt := range countStatements() {
		n, err := qs.count(ctx, stmt)
		if err != nil {
			return 0, fmt.Errorf("cypher: size: %w", err)
		}
		total = addSaturated(total, n)
	}
	return total, nil
}

func addSaturated(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func (qs *QuadStore) IsEmpty(ctx context.Context) (bool, error) {
	for _, stmt := range existsStatements() {
		ok, err := qs.exists(ctx, stmt)
		if err != nil {
			return false, fmt.Errorf("cypher: is empty: %w", err)
		} else if ok {
			return false, nil
		}
	}
	return true, nil
}

// Clear removes all nodes and relationships of the graph, including
// nodes left without triples.
func (qs *QuadStore) Clear(ctx context.Context) error {
	if err := qs.exec(ctx, Statement{Query: "MATCH (n) DETACH DELETE n"}); err != nil {
		return fmt.Errorf("cypher: clear: %w", err)
	}
	return nil
}

func (qs *QuadStore) TransactionsSupported() bool { return true }

func (qs *QuadStore) BeginTransaction() error {
	if qs.state != graph.TxIdle {
		return &graph.TxError{Op: "begin", State: qs.state}
	}
	qs.state = graph.TxOpen
	qs.tx = newTxBuffer()
	return nil
}

// Commit flushes the transaction buffer and closes the transaction.
//
// The buffer is written by several independent statements. If one of them
// fails, the transaction is closed anyway, the rest of the buffer is
// discarded and the changes made by the previous statements remain.
func (qs *QuadStore) Commit(ctx context.Context) error {
	if qs.state != graph.TxOpen {
		return &graph.TxError{Op: "commit", State: qs.state}
	}
	buf := qs.tx
	qs.state, qs.tx = graph.TxIdle, nil
	return qs.commit(ctx, buf)
}

func (qs *QuadStore) commit(ctx context.Context, buf *txBuffer) error {
	defer prometheus.NewTimer(mCommitSeconds).ObserveDuration()

	adds, deletes := buf.adds.list(), buf.deletes.list()
	err := qs.flush(ctx, adds, graph.Add)
	if err == nil {
		err = qs.flush(ctx, deletes, graph.Delete)
	}
	if err != nil {
		mCommitFailed.Inc()
		return fmt.Errorf("cypher: commit: %w", err)
	}
	mCommit.Inc()
	if clog.V(1) {
		clog.Infof("cypher: committed %d additions and %d deletions", len(adds), len(deletes))
	}
	return nil
}

// Abort discards the transaction buffer. Nothing is sent to the database.
func (qs *QuadStore) Abort() error {
	if qs.state != graph.TxOpen {
		return &graph.TxError{Op: "abort", State: qs.state}
	}
	mAbort.Inc()
	qs.state, qs.tx = graph.TxIdle, nil
	return nil
}

// Close releases the connection. A pending transaction is discarded.
func (qs *QuadStore) Close() error {
	if qs.state == graph.TxOpen {
		clog.Warningf("cypher: closing graph with an open transaction of %d changes", qs.tx.len())
		qs.state, qs.tx = graph.TxIdle, nil
	}
	return qs.conn.Close()
}
