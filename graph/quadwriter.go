// Copyright 2014 The Cayley Authors. All rights reserved.
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

import (
	"context"
	"errors"

	"github.com/cayleygraph/quad"
)

type Procedure int8

func (p Procedure) String() string {
	switch p {
	case +1:
		return "add"
	case -1:
		return "delete"
	default:
		return "invalid"
	}
}

// The different types of actions a transaction can do.
const (
	Add    Procedure = +1
	Delete Procedure = -1
)

type Delta struct {
	Quad   quad.Quad
	Action Procedure
}

var (
	ErrInvalidQuad          = errors.New("invalid quad")
	ErrInvalidAction        = errors.New("invalid action")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrStoreNotRegistered   = errors.New("store is not registered")
)

// DeltaError records an error and the delta that caused it.
type DeltaError struct {
	Delta Delta
	Err   error
}

func (e *DeltaError) Error() string {
	if !e.Delta.Quad.IsValid() {
		return e.Err.Error()
	}
	return e.Delta.Action.String() + " " + e.Delta.Quad.String() + ": " + e.Err.Error()
}

func (e *DeltaError) Unwrap() error { return e.Err }

// IsInvalidQuad returns whether an error is ErrInvalidQuad,
// possibly wrapped in a DeltaError.
func IsInvalidQuad(err error) bool {
	return errors.Is(err, ErrInvalidQuad)
}

// IsInvalidAction returns whether an error is ErrInvalidAction,
// possibly wrapped in a DeltaError.
func IsInvalidAction(err error) bool {
	return errors.Is(err, ErrInvalidAction)
}

// IsUnsupportedOperation returns whether an error was caused by calling
// a transaction operation in the wrong state.
func IsUnsupportedOperation(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}

type BatchWriter interface {
	quad.WriteCloser
	Flush() error
}

// NewWriter creates a quad writer for a given Graph.
//
// Quads are grouped into batches of quad.DefaultBatch and every batch
// is applied as one transaction. Caller must call Flush or Close to
// flush an internal buffer.
func NewWriter(ctx context.Context, g Graph) BatchWriter {
	return &batchWriter{ctx: ctx, g: g, p: Add}
}

// NewRemover creates a quad writer for a given Graph which removes quads
// instead of adding them.
func NewRemover(ctx context.Context, g Graph) BatchWriter {
	return &batchWriter{ctx: ctx, g: g, p: Delete}
}

type batchWriter struct {
	ctx context.Context
	g   Graph
	p   Procedure
	buf []quad.Quad
}

func (w *batchWriter) flushBuffer(force bool) error {
	if len(w.buf) == 0 || (!force && len(w.buf) < quad.DefaultBatch) {
		return nil
	}
	_, err := w.apply(w.buf)
	w.buf = w.buf[:0]
	return err
}

func (w *batchWriter) apply(quads []quad.Quad) (int, error) {
	tx := NewTransaction()
	if _, err := NewTxWriter(tx, w.p).WriteQuads(quads); err != nil {
		return 0, err
	}
	if err := w.g.ApplyDeltas(w.ctx, tx.Deltas); err != nil {
		return 0, err
	}
	return len(quads), nil
}

func (w *batchWriter) WriteQuad(q quad.Quad) error {
	if err := w.flushBuffer(false); err != nil {
		return err
	}
	w.buf = append(w.buf, q)
	return nil
}

func (w *batchWriter) WriteQuads(quads []quad.Quad) (int, error) {
	if err := w.flushBuffer(true); err != nil {
		return 0, err
	}
	return w.apply(quads)
}

func (w *batchWriter) Flush() error {
	return w.flushBuffer(true)
}

func (w *batchWriter) Close() error {
	return w.Flush()
}

// NewTxWriter creates a writer that applies a given procedures for all quads in stream.
// If procedure is zero, Add operation will be used.
func NewTxWriter(tx *Transaction, p Procedure) quad.Writer {
	if p == 0 {
		p = Add
	}
	return &txWriter{tx: tx, p: p}
}

type txWriter struct {
	tx *Transaction
	p  Procedure
}

func (w *txWriter) WriteQuad(q quad.Quad) error {
	switch w.p {
	case Add:
		w.tx.AddQuad(q)
	case Delete:
		w.tx.RemoveQuad(q)
	default:
		return ErrInvalidAction
	}
	return nil
}

func (w *txWriter) WriteQuads(buf []quad.Quad) (int, error) {
	for i, q := range buf {
		if err := w.WriteQuad(q); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}
