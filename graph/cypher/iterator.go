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
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
)

var _ graph.Iterator = (*Iterator)(nil)

// Iterator runs the sub-queries of a pattern one after another.
// The next sub-query is sent only when the previous one is exhausted.
type Iterator struct {
	conn Conn
	subs []subQuery

	rows   Rows
	buf    []quad.Quad
	result quad.Quad
	err    error
	done   bool
}

func newIterator(conn Conn, subs []subQuery) *Iterator {
	return &Iterator{conn: conn, subs: subs}
}

func (it *Iterator) Next(ctx context.Context) bool {
	for {
		if it.done || it.err != nil {
			return false
		}
		if len(it.buf) > 0 {
			it.result, it.buf = it.buf[0], it.buf[1:]
			return true
		}
		if it.rows == nil {
			if len(it.subs) == 0 {
				it.done = true
				return false
			}
			sub := it.subs[0]
			if clog.V(3) {
				clog.Infof("cypher: find %v: %v", sub.shape, sub.stmt)
			}
			rows, err := it.conn.Query(ctx, sub.stmt.Query, sub.stmt.Params)
			if err != nil {
				it.err = fmt.Errorf("cypher: find %v: %w", sub.shape, err)
				return false
			}
			it.rows = rows
		}
		if it.rows.Next(ctx) {
			it.buf = it.subs[0].decode(it.rows.Values())
			continue
		}
		err := it.rows.Err()
		if cerr := it.rows.Close(); err == nil {
			err = cerr
		}
		it.rows = nil
		if err != nil {
			it.err = fmt.Errorf("cypher: find %v: %w", it.subs[0].shape, err)
			return false
		}
		it.subs = it.subs[1:]
	}
}

func (it *Iterator) Result() quad.Quad {
	return it.result
}

func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) Close() error {
	it.done = true
	it.buf = nil
	if it.rows == nil {
		return nil
	}
	err := it.rows.Close()
	it.rows = nil
	return err
}
