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
	"sort"
	"strings"

	"github.com/cayleygraph/lpg/graph"
)

// Params are bound parameters of a Cypher statement.
//
// Values are limited to nil, string, int64, float64, bool
// and []interface{} of those.
type Params map[string]interface{}

// Statement is a single Cypher statement with its parameters.
type Statement struct {
	Query  string
	Params Params
}

func (s Statement) String() string {
	if len(s.Params) == 0 {
		return s.Query
	}
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(s.Query)
	b.WriteString(" {")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, s.Params[k])
	}
	b.WriteString("}")
	return b.String()
}

// Conn is a connection to a single named graph of a Cypher database.
//
// Implementations must return result values in a normalized form:
// integers as int64, floats as float64, nodes as Node and lists
// as []interface{}.
type Conn interface {
	// Query runs a statement and returns its rows.
	Query(ctx context.Context, query string, params Params) (Rows, error)
	// Exec runs a statement and discards its results.
	Exec(ctx context.Context, query string, params Params) error
	// EnsureIndex creates an index on the property of nodes with a given label.
	// It returns nil if the index already exists.
	EnsureIndex(ctx context.Context, label, property string) error
	Close() error
}

// Rows is a cursor over the result of a Query.
type Rows interface {
	Next(ctx context.Context) bool
	// Values returns the columns of the current row.
	Values() []interface{}
	Err() error
	Close() error
}

// Node is a graph node returned in query results.
type Node struct {
	Labels []string
	Props  map[string]interface{}
}

// NewFunc dials a database at the given address.
type NewFunc func(addr string, opts graph.Options) (Conn, error)

type Registration struct {
	NewFunc      NewFunc
	IsPersistent bool
}

// Register makes a Cypher database available as a graph store with a given name.
func Register(name string, r Registration) {
	graph.RegisterStore(name, graph.StoreRegistration{
		NewFunc: func(addr string, opts graph.Options) (graph.Graph, error) {
			conn, err := r.NewFunc(addr, opts)
			if err != nil {
				return nil, err
			}
			qs, err := New(context.Background(), conn, opts)
			if err != nil {
				conn.Close()
				return nil, err
			}
			return qs, nil
		},
		InitFunc: func(addr string, opts graph.Options) error {
			conn, err := r.NewFunc(addr, opts)
			if err != nil {
				return err
			}
			defer conn.Close()
			return Init(context.Background(), conn)
		},
		IsPersistent: r.IsPersistent,
	})
}
