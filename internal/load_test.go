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

package internal

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/graph/graphmock"
)

const testData = `<http://example.org/Isaac> <http://example.org/fatherOf> <http://example.org/Jacob> .
<http://example.org/Isaac> <http://example.org/name> "Isaac" .
<http://example.org/Jacob> <http://example.org/name> "Jacob"@en .
_:b1 <http://example.org/knows> <http://example.org/Jacob> <http://example.org/ctx> .
`

var testQuads = []quad.Quad{
	{Subject: quad.IRI("http://example.org/Isaac"), Predicate: quad.IRI("http://example.org/fatherOf"), Object: quad.IRI("http://example.org/Jacob")},
	{Subject: quad.IRI("http://example.org/Isaac"), Predicate: quad.IRI("http://example.org/name"), Object: quad.String("Isaac")},
	{Subject: quad.IRI("http://example.org/Jacob"), Predicate: quad.IRI("http://example.org/name"), Object: quad.LangString{Value: "Jacob", Lang: "en"}},
	{Subject: quad.BNode("b1"), Predicate: quad.IRI("http://example.org/knows"), Object: quad.IRI("http://example.org/Jacob")},
}

func writeFile(t testing.TB, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func all(t testing.TB, g graph.Graph) []quad.Quad {
	out, err := graph.ReadAll(context.TODO(), g.Find(context.TODO(), quad.Quad{}))
	require.NoError(t, err)
	return out
}

func sortedQuads(in []quad.Quad) []quad.Quad {
	g := graphmock.New(in...)
	out, _ := graph.ReadAll(context.TODO(), g.Find(context.TODO(), quad.Quad{}))
	return out
}

func TestLoad(t *testing.T) {
	ctx := context.TODO()
	path := writeFile(t, "data.nq", []byte(testData))

	g := graphmock.New()
	n, err := Load(ctx, g, 2, path, "nquads")
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, sortedQuads(testQuads), all(t, g))
}

func TestLoadGzip(t *testing.T) {
	ctx := context.TODO()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testData))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := writeFile(t, "data.nq.gz", buf.Bytes())

	g := graphmock.New()
	_, err = Load(ctx, g, quad.DefaultBatch, "file://"+path, "")
	require.NoError(t, err)
	require.Equal(t, sortedQuads(testQuads), all(t, g))
}

func TestLoadErrors(t *testing.T) {
	ctx := context.TODO()
	g := graphmock.New()

	n, err := Load(ctx, g, 10, "", "nquads")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = Load(ctx, g, 10, writeFile(t, "empty.nq", nil), "nquads")
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = Load(ctx, g, 10, filepath.Join(t.TempDir(), "missing.nq"), "nquads")
	require.Error(t, err)

	_, err = Load(ctx, g, 10, writeFile(t, "data.x", []byte(testData)), "no-such-format")
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	ctx := context.TODO()
	g := graphmock.New(testQuads...)

	var buf bytes.Buffer
	n, err := Write(ctx, g, quad.Quad{Predicate: quad.IRI("http://example.org/name")}, &buf, "nquads")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	back := graphmock.New()
	_, err = DecompressAndLoad(graph.NewWriter(ctx, back), 10, writeFile(t, "out.nq", buf.Bytes()), "nquads")
	require.NoError(t, err)
	require.Equal(t, sortedQuads(testQuads[1:3]), all(t, back))

	_, err = Write(ctx, g, quad.Quad{}, &buf, "no-such-format")
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	ctx := context.TODO()
	g := graphmock.New(testQuads...)
	path := filepath.Join(t.TempDir(), "dump.nq.gz")

	n, err := Dump(ctx, g, path, "quad")
	require.NoError(t, err)
	require.Equal(t, len(testQuads), n)

	back := graphmock.New()
	_, err = Load(ctx, back, 10, path, "nquads")
	require.NoError(t, err)
	require.Equal(t, all(t, g), all(t, back))
}
