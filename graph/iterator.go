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
	"io"

	"github.com/cayleygraph/quad"
)

// Iterator is a one-shot lazy sequence of quads.
//
// The usual loop is:
//
//	for it.Next(ctx) {
//		q := it.Result()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator interface {
	// Next advances the iterator to the next value, which will then be
	// available through Result. It returns false if no further advancement
	// is possible, either because of an error or the end of the sequence.
	Next(ctx context.Context) bool

	// Result returns the current quad.
	Result() quad.Quad

	// Err returns any error that was encountered by the Iterator.
	Err() error

	// Close releases the resources held by the iterator. It is safe
	// to call it more than once.
	Close() error
}

// NewQuadReader wraps an iterator as a quad.Reader.
// Closing the reader closes the iterator.
func NewQuadReader(ctx context.Context, it Iterator) quad.ReadCloser {
	return &quadReader{ctx: ctx, it: it}
}

type quadReader struct {
	ctx context.Context
	it  Iterator
}

func (r *quadReader) ReadQuad() (quad.Quad, error) {
	if r.it.Next(r.ctx) {
		return r.it.Result(), nil
	}
	if err := r.it.Err(); err != nil {
		return quad.Quad{}, err
	}
	return quad.Quad{}, io.EOF
}

func (r *quadReader) Close() error {
	return r.it.Close()
}

// ReadAll drains the iterator and closes it.
func ReadAll(ctx context.Context, it Iterator) ([]quad.Quad, error) {
	defer it.Close()
	var out []quad.Quad
	for it.Next(ctx) {
		out = append(out, it.Result())
	}
	return out, it.Err()
}
