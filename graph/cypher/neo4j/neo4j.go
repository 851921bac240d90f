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

// Package neo4j connects the Cypher graph to Neo4j and other servers
// that speak the Bolt protocol.
//
// The graph option selects a database. When it is not set, the default
// database of the server is used.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/graph/cypher"
)

const Type = "neo4j"

func init() {
	cypher.Register(Type, cypher.Registration{
		NewFunc:      Dial,
		IsPersistent: true,
	})
}

var _ cypher.Conn = (*Conn)(nil)

// target returns a driver URL for an address. A bare host:port uses the
// neo4j routing scheme.
func target(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "neo4j://" + addr
}

func authFrom(opts graph.Options) (neo4j.AuthToken, error) {
	user, err := opts.StringKey(cypher.OptUsername, "")
	if err != nil {
		return neo4j.AuthToken{}, err
	}
	pass, err := opts.StringKey(cypher.OptPassword, "")
	if err != nil {
		return neo4j.AuthToken{}, err
	}
	if user == "" {
		return neo4j.NoAuth(), nil
	}
	return neo4j.BasicAuth(user, pass, ""), nil
}

// Dial connects to a server and verifies the connection.
func Dial(addr string, opts graph.Options) (cypher.Conn, error) {
	db, err := opts.StringKey(cypher.OptGraph, "")
	if err != nil {
		return nil, err
	}
	auth, err := authFrom(opts)
	if err != nil {
		return nil, err
	}
	driver, err := neo4j.NewDriverWithContext(target(addr), auth)
	if err != nil {
		return nil, fmt.Errorf("neo4j: %w", err)
	}
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: cannot connect to %s: %w", addr, err)
	}
	clog.Infof("neo4j: connected to %s, database %q", addr, db)
	return New(driver, db), nil
}

// Conn runs every statement in its own auto-commit session.
// It owns the driver.
type Conn struct {
	driver neo4j.DriverWithContext
	db     string
}

// New wraps a driver. An empty database name selects the server default.
func New(driver neo4j.DriverWithContext, database string) *Conn {
	return &Conn{driver: driver, db: database}
}

func (c *Conn) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.db})
}

func (c *Conn) Query(ctx context.Context, query string, params cypher.Params) (cypher.Rows, error) {
	sess := c.session(ctx)
	res, err := sess.Run(ctx, query, params)
	if err != nil {
		sess.Close(ctx)
		return nil, err
	}
	return &rows{ctx: ctx, sess: sess, res: res}, nil
}

func (c *Conn) Exec(ctx context.Context, query string, params cypher.Params) error {
	sess := c.session(ctx)
	defer sess.Close(ctx)
	res, err := sess.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func (c *Conn) EnsureIndex(ctx context.Context, label, property string) error {
	q := fmt.Sprintf("CREATE INDEX IF NOT EXISTS FOR (n:`%s`) ON (n.`%s`)", cypher.Sanitize(label), cypher.Sanitize(property))
	return c.Exec(ctx, q, nil)
}

func (c *Conn) Close() error {
	return c.driver.Close(context.Background())
}

type rows struct {
	ctx  context.Context
	sess neo4j.SessionWithContext
	res  neo4j.ResultWithContext
	cur  []interface{}
}

func (r *rows) Next(ctx context.Context) bool {
	if r.res == nil || !r.res.Next(ctx) {
		return false
	}
	vals := r.res.Record().Values
	r.cur = make([]interface{}, len(vals))
	for i, v := range vals {
		r.cur[i] = normalize(v)
	}
	return true
}

func (r *rows) Values() []interface{} { return r.cur }

func (r *rows) Err() error {
	if r.res == nil {
		return nil
	}
	return r.res.Err()
}

func (r *rows) Close() error {
	if r.sess == nil {
		return nil
	}
	err := r.sess.Close(r.ctx)
	r.sess, r.res = nil, nil
	return err
}

// normalize converts driver values to the forms expected by cypher.Conn.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case neo4j.Node:
		props := make(map[string]interface{}, len(v.Props))
		for k, p := range v.Props {
			props[k] = normalize(p)
		}
		return cypher.Node{Labels: v.Labels, Props: props}
	case *neo4j.Node:
		if v == nil {
			return nil
		}
		return normalize(*v)
	case int:
		return int64(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out
	}
	return v
}
