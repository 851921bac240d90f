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

package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/graph/graphmock"
)

var (
	mock     *graphmock.Store
	inits    int
	lastAddr string
	lastOpts graph.Options
)

func init() {
	graph.RegisterStore("mock", graph.StoreRegistration{
		NewFunc: func(addr string, opts graph.Options) (graph.Graph, error) {
			lastAddr, lastOpts = addr, opts
			return mock, nil
		},
		InitFunc: func(addr string, opts graph.Options) error {
			inits++
			return nil
		},
		IsPersistent: true,
	})
	graph.RegisterStore("mem", graph.StoreRegistration{
		NewFunc: func(addr string, opts graph.Options) (graph.Graph, error) {
			return graphmock.New(), nil
		},
	})
}

const testData = `<http://example.org/alice> <http://example.org/knows> <http://example.org/bob> .
<http://example.org/alice> <http://example.org/name> "Alice" .
<http://example.org/bob> <http://example.org/name> "Bob" .
`

func reset(t testing.TB) {
	mock = graphmock.New()
	inits = 0
	lastAddr, lastOpts = "", nil
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func run(t testing.TB, args ...string) (string, error) {
	viper.Reset()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs(append([]string{"--backend", "mock"}, args...))
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t testing.TB, name, data string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func lines(s string) int {
	return strings.Count(s, "\n")
}

func TestLoadAndQuery(t *testing.T) {
	reset(t)
	path := writeFile(t, "data.nq", testData)

	out, err := run(t, "load", path)
	require.NoError(t, err)
	require.Equal(t, "3 triples were loaded\n", out)
	require.True(t, mock.Closed)

	out, err = run(t, "size")
	require.NoError(t, err)
	require.Equal(t, "3\n", out)

	out, err = run(t, "find", "<http://example.org/alice>")
	require.NoError(t, err)
	require.Equal(t, 2, lines(out), out)

	out, err = run(t, "find", "?", "<http://example.org/name>", `"Bob"`)
	require.NoError(t, err)
	require.Equal(t, "<http://example.org/bob> <http://example.org/name> \"Bob\" .\n", out)

	out, err = run(t, "dump")
	require.NoError(t, err)
	require.Equal(t, 3, lines(out), out)

	_, err = run(t, "clear")
	require.NoError(t, err)
	n, err := mock.Size(context.TODO())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLoadAndDump(t *testing.T) {
	reset(t)
	in := writeFile(t, "data.nq", testData)
	dump := filepath.Join(t.TempDir(), "out.nq.gz")

	out, err := run(t, "load", "--init", "-i", in, "-o", dump)
	require.NoError(t, err)
	require.Equal(t, 1, inits)
	require.Contains(t, out, "3 triples were written")

	mock = graphmock.New()
	_, err = run(t, "load", "--batch", "1", dump)
	require.NoError(t, err)
	n, err := mock.Size(context.TODO())
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestLoadErrors(t *testing.T) {
	reset(t)
	_, err := run(t, "load")
	require.Error(t, err)

	_, err = run(t, "load", filepath.Join(t.TempDir(), "missing.nq"))
	require.Error(t, err)

	_, err = run(t, "load", "--load_format", "no-such-format", writeFile(t, "data.nq", testData))
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	reset(t)
	_, err := run(t, "init")
	require.NoError(t, err)
	require.Equal(t, 1, inits)

	_, err = run(t, "--backend", "mem", "init")
	require.Equal(t, ErrNotPersistent, err)

	_, err = run(t, "--backend", "no-such-backend", "init")
	require.ErrorIs(t, err, graph.ErrStoreNotRegistered)
}

func TestHealth(t *testing.T) {
	reset(t)
	out, err := run(t, "health")
	require.NoError(t, err)
	require.Equal(t, "ok\n", out)
}

func TestStoreConfig(t *testing.T) {
	reset(t)
	_, err := run(t, "--address", "host:1", "--opt", "graph=g1", "--opt", "max_batch=7", "--opt", "ensure_index=false", "size")
	require.NoError(t, err)
	require.Equal(t, "host:1", lastAddr)
	require.Equal(t, graph.Options{"graph": "g1", "max_batch": 7, "ensure_index": false}, lastOpts)

	t.Setenv("LPG_STORE_ADDRESS", "env:2")
	_, err = run(t, "size")
	require.NoError(t, err)
	require.Equal(t, "env:2", lastAddr)

	conf := writeFile(t, "lpg.yml", "store:\n  address: file:3\n  options:\n    graph: g2\n")
	_, err = run(t, "--config", conf, "--address", "flag:4", "size")
	require.NoError(t, err)
	require.Equal(t, "flag:4", lastAddr)
	g, err := lastOpts.StringKey("graph", "")
	require.NoError(t, err)
	require.Equal(t, "g2", g)

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "size")
	require.Error(t, err)
}

func TestParsePattern(t *testing.T) {
	for _, c := range []struct {
		args []string
		exp  quad.Quad
	}{
		{nil, quad.Quad{}},
		{[]string{"?", "*", ""}, quad.Quad{}},
		{
			[]string{"<http://example.org/a>"},
			quad.Quad{Subject: quad.IRI("http://example.org/a")},
		},
		{
			[]string{"?", "?", `"v"@en`},
			quad.Quad{Object: quad.LangString{Value: "v", Lang: "en"}},
		},
		{
			[]string{"_:b", "<http://example.org/p>", `"v"`},
			quad.Quad{
				Subject:   quad.BNode("b"),
				Predicate: quad.IRI("http://example.org/p"),
				Object:    quad.String("v"),
			},
		},
	} {
		p, err := ParsePattern(c.args)
		require.NoError(t, err)
		require.Equal(t, c.exp, p, "%q", c.args)
	}
	_, err := ParsePattern([]string{"a", "b", "c", "d"})
	require.Error(t, err)
	_, err = ParsePattern([]string{"<unterminated"})
	require.Error(t, err)
}

func TestDumpFormat(t *testing.T) {
	for _, c := range []struct {
		path, typ, exp string
	}{
		{"-", "", "nquads"},
		{"out.nq", "", "nquads"},
		{"out.nq.gz", "", "nquads"},
		{"out.unknown", "", "nquads"},
		{"out.nq", "pquads", "pquads"},
	} {
		require.Equal(t, c.exp, dumpFormat(c.path, c.typ), "%s %q", c.path, c.typ)
	}
}

func TestOptionValue(t *testing.T) {
	for _, c := range []struct {
		key, val string
		exp      interface{}
	}{
		{"max_batch", "7", 7},
		{"ensure_index", "false", false},
		{"graph", "g", "g"},
		{"graph", "2024", "2024"},
		{"password", "123456", "123456"},
		{"username", "true", "true"},
	} {
		v, err := optionValue(c.key, c.val)
		require.NoError(t, err)
		require.Equal(t, c.exp, v, "%s=%s", c.key, c.val)
	}
	_, err := optionValue("max_batch", "many")
	require.Error(t, err)
	_, err = optionValue("ensure_index", "maybe")
	require.Error(t, err)
}

func TestNumericStringOptions(t *testing.T) {
	reset(t)
	_, err := run(t, "--opt", "graph=2024", "--opt", "password=123456", "size")
	require.NoError(t, err)
	for key, exp := range map[string]string{"graph": "2024", "password": "123456"} {
		v, err := lastOpts.StringKey(key, "")
		require.NoError(t, err)
		require.Equal(t, exp, v)
	}

	_, err = run(t, "--opt", "max_batch=many", "size")
	require.Error(t, err)
}
