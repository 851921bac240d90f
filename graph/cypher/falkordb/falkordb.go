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

// Package falkordb connects the Cypher graph to FalkorDB and other servers
// that implement the RedisGraph protocol.
package falkordb

import (
	"context"
	"fmt"
	"strings"

	"github.com/RedisGraph/redisgraph-go"
	"github.com/gomodule/redigo/redis"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/graph/cypher"
)

const Type = "falkordb"

func init() {
	cypher.Register(Type, cypher.Registration{
		NewFunc:      Dial,
		IsPersistent: true,
	})
}

var _ cypher.Conn = (*Conn)(nil)

// Dial connects to a server at host:port and selects a graph by name.
func Dial(addr string, opts graph.Options) (cypher.Conn, error) {
	name, err := opts.StringKey(cypher.OptGraph, cypher.DefaultGraph)
	if err != nil {
		return nil, err
	}
	user, err := opts.StringKey(cypher.OptUsername, "")
	if err != nil {
		return nil, err
	}
	pass, err := opts.StringKey(cypher.OptPassword, "")
	if err != nil {
		return nil, err
	}
	var dialOpts []redis.DialOption
	if user != "" {
		dialOpts = append(dialOpts, redis.DialUsername(user))
	}
	if pass != "" {
		dialOpts = append(dialOpts, redis.DialPassword(pass))
	}
	conn, err := redis.Dial("tcp", addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("falkordb: cannot connect to %s: %w", addr, err)
	}
	clog.Infof("falkordb: connected to %s, graph %q", addr, name)
	return New(conn, name), nil
}

// Conn is a connection to a single graph. It owns the underlying redis connection.
type Conn struct {
	conn  redis.Conn
	graph redisgraph.Graph
}

// New wraps an established redis connection.
func New(conn redis.Conn, graphName string) *Conn {
	return &Conn{
		conn:  conn,
		graph: redisgraph.GraphNew(graphName, conn),
	}
}

func (c *Conn) run(ctx context.Context, query string, params cypher.Params) (*redisgraph.QueryResult, error) {
	// the client is not context-aware; honor cancellation between round trips
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	header, err := paramHeader(params)
	if err != nil {
		return nil, err
	}
	return c.graph.Query(header + query)
}

func (c *Conn) Query(ctx context.Context, query string, params cypher.Params) (cypher.Rows, error) {
	res, err := c.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return &rows{res: res}, nil
}

func (c *Conn) Exec(ctx context.Context, query string, params cypher.Params) error {
	_, err := c.run(ctx, query, params)
	return err
}

// EnsureIndex creates a range index. An existing index is not an error.
func (c *Conn) EnsureIndex(ctx context.Context, label, property string) error {
	q := fmt.Sprintf("CREATE INDEX FOR (n:`%s`) ON (n.`%s`)", cypher.Sanitize(label), cypher.Sanitize(property))
	if err := c.Exec(ctx, q, nil); err != nil && !isIndexExists(err) {
		return err
	}
	return nil
}

func isIndexExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already indexed") || strings.Contains(msg, "already exists")
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// rows iterates over a fully received result set.
type rows struct {
	res *redisgraph.QueryResult
	cur []interface{}
}

func (r *rows) Next(ctx context.Context) bool {
	if r.res == nil || !r.res.Next() {
		return false
	}
	vals := r.res.Record().Values()
	r.cur = make([]interface{}, len(vals))
	for i, v := range vals {
		r.cur[i] = normalize(v)
	}
	return true
}

func (r *rows) Values() []interface{} { return r.cur }

func (r *rows) Err() error { return nil }

func (r *rows) Close() error {
	r.res = nil
	return nil
}

// normalize converts client result values to the forms expected by cypher.Conn.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	case *redisgraph.Node:
		if v == nil {
			return nil
		}
		props := make(map[string]interface{}, len(v.Properties))
		for k, p := range v.Properties {
			props[k] = normalize(p)
		}
		return cypher.Node{Labels: v.Labels, Props: props}
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
