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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mStatements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cayley_cypher_statements_count",
		Help: "Number of statements sent to the database.",
	}, []string{"kind"})
	mStatementErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cayley_cypher_statement_errors",
		Help: "Number of statements that failed.",
	}, []string{"kind"})
	mStatementSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "cayley_cypher_statement_seconds",
		Help: "Time to send a statement and receive the first response.",
	}, []string{"kind"})

	mFlushBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cayley_cypher_flush_batch",
		Help:    "Number of triples written by a single bulk statement.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"shape"})

	mCommit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cayley_cypher_commit",
		Help: "Number of transactions and delta batches flushed without error.",
	})
	mCommitFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cayley_cypher_commit_failed",
		Help: "Number of transactions that failed to flush.",
	})
	mCommitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "cayley_cypher_commit_seconds",
		Help: "Time to flush a transaction buffer.",
	})
	mAbort = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cayley_cypher_abort",
		Help: "Number of aborted transactions.",
	})
)

func wrapConn(c Conn) Conn {
	if _, ok := c.(*mConn); ok {
		return c
	}
	return &mConn{c: c}
}

// mConn counts round trips to the database.
type mConn struct {
	c Conn
}

func (c *mConn) Query(ctx context.Context, query string, params Params) (Rows, error) {
	mStatements.WithLabelValues("query").Inc()
	t := prometheus.NewTimer(mStatementSeconds.WithLabelValues("query"))
	rows, err := c.c.Query(ctx, query, params)
	t.ObserveDuration()
	if err != nil {
		mStatementErrors.WithLabelValues("query").Inc()
	}
	return rows, err
}

func (c *mConn) Exec(ctx context.Context, query string, params Params) error {
	mStatements.WithLabelValues("exec").Inc()
	defer prometheus.NewTimer(mStatementSeconds.WithLabelValues("exec")).ObserveDuration()
	err := c.c.Exec(ctx, query, params)
	if err != nil {
		mStatementErrors.WithLabelValues("exec").Inc()
	}
	return err
}

func (c *mConn) EnsureIndex(ctx context.Context, label, property string) error {
	mStatements.WithLabelValues("index").Inc()
	err := c.c.EnsureIndex(ctx, label, property)
	if err != nil {
		mStatementErrors.WithLabelValues("index").Inc()
	}
	return err
}

func (c *mConn) Close() error {
	return c.c.Close()
}
