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

// Defines the Graph interface. Every backing store must implement this
// interface to be usable by the loader, the dumper and the command line.
//
// A Graph stores RDF triples. The Label of a quad is not stored and is
// always nil on quads returned from Find.

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cayleygraph/quad"
)

type Graph interface {
	// AddQuad adds a triple to the graph. Adding a triple that is already
	// present is not an error.
	//
	// If a transaction is open, the triple is buffered until Commit.
	AddQuad(ctx context.Context, q quad.Quad) error

	// RemoveQuad removes a triple from the graph. Removing a missing triple
	// is a no-op.
	//
	// If a transaction is open, the removal is buffered until Commit.
	RemoveQuad(ctx context.Context, q quad.Quad) error

	// ApplyDeltas applies a list of changes in order as a single transaction.
	ApplyDeltas(ctx context.Context, in []Delta) error

	// Find returns a lazy iterator over all triples matching the pattern.
	// Nil components of the pattern are wildcards.
	Find(ctx context.Context, pattern quad.Quad) Iterator

	// Contains reports whether the exact triple is stored.
	Contains(ctx context.Context, q quad.Quad) (bool, error)

	// Size returns the number of stored triples. It saturates at math.MaxInt64.
	Size(ctx context.Context) (int64, error)

	// IsEmpty reports whether the graph stores no triples.
	IsEmpty(ctx context.Context) (bool, error)

	// Clear removes all data from the graph, including the data not visible
	// as triples. It does not affect a pending transaction buffer.
	Clear(ctx context.Context) error

	BeginTransaction() error
	Commit(ctx context.Context) error
	Abort() error
	TransactionsSupported() bool

	// Close the graph and release the connection.
	Close() error
}

type Options map[string]interface{}

var (
	typeInt = reflect.TypeOf(int(0))
)

func (d Options) IntKey(key string, def int) (int, error) {
	if val, ok := d[key]; ok {
		if val != nil && reflect.TypeOf(val).ConvertibleTo(typeInt) {
			i := reflect.ValueOf(val).Convert(typeInt).Int()
			return int(i), nil
		}

		return def, fmt.Errorf("invalid %s parameter type from config: %T", key, val)
	}
	return def, nil
}

func (d Options) StringKey(key string, def string) (string, error) {
	if val, ok := d[key]; ok {
		if v, ok := val.(string); ok {
			return v, nil
		}

		return def, fmt.Errorf("invalid %s parameter type from config: %T", key, val)
	}

	return def, nil
}

func (d Options) BoolKey(key string, def bool) (bool, error) {
	if val, ok := d[key]; ok {
		if v, ok := val.(bool); ok {
			return v, nil
		}

		return def, fmt.Errorf("invalid %s parameter type from config: %T", key, val)
	}

	return def, nil
}
