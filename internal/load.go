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
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cayleygraph/quad"
	_ "github.com/cayleygraph/quad/jsonld"
	"github.com/cayleygraph/quad/nquads"
	_ "github.com/cayleygraph/quad/pquads"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/internal/decompressor"
)

// DefaultFormat is used when a format name is empty.
const DefaultFormat = "nquads"

// Load reads triples from a file or URL and adds them to g in batches.
// Every batch is applied as one transaction.
func Load(ctx context.Context, g graph.Graph, batch int, path, typ string) (int, error) {
	w := graph.NewWriter(ctx, g)
	n, err := DecompressAndLoad(w, batch, path, typ)
	if err != nil {
		return n, err
	}
	return n, w.Close()
}

// Open opens a local file or fetches a remote resource.
func Open(path string) (io.ReadCloser, error) {
	u, err := url.Parse(path)
	if err != nil || u.Scheme == "file" || u.Scheme == "" {
		// Don't alter relative URL path or non-URL path parameter.
		if u != nil && u.Scheme != "" && err == nil {
			// Recovery heuristic for mistyping "file://path/to/file".
			path = filepath.Join(u.Host, u.Path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open file %q: %w", path, err)
		}
		return f, nil
	}
	res, err := http.Get(path)
	if err != nil {
		return nil, fmt.Errorf("could not get resource <%s>: %w", u, err)
	} else if res.StatusCode/100 != 2 {
		res.Body.Close()
		return nil, fmt.Errorf("could not get resource <%s>: %s", u, res.Status)
	}
	return res.Body, nil
}

// NewReader returns a triple reader for a format name.
func NewReader(r io.Reader, typ string) (quad.Reader, error) {
	switch typ {
	case "":
		typ = DefaultFormat
	case "cquad":
		return nquads.NewReader(r, false), nil
	case "nquad":
		return nquads.NewReader(r, true), nil
	}
	rf := quad.FormatByName(typ)
	if rf == nil {
		return nil, fmt.Errorf("unknown quad format %q", typ)
	} else if rf.Reader == nil {
		return nil, fmt.Errorf("decoding of %q is not supported", typ)
	}
	return rf.Reader(r), nil
}

// DecompressAndLoad will load or fetch a graph from the given path, decompress
// it, and then write it to dest. It returns the number of written triples.
func DecompressAndLoad(dest quad.BatchWriter, batch int, path, typ string) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r, err := decompressor.New(f)
	if err == io.EOF {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	qr, err := NewReader(r, typ)
	if err != nil {
		return 0, err
	}

	n, err := quad.CopyBatch(&batchLogger{BatchWriter: dest}, qr, batch)
	if err != nil {
		return n, fmt.Errorf("db: failed to load data: %w", err)
	}
	return n, nil
}

type batchLogger struct {
	cnt int
	quad.BatchWriter
}

func (w *batchLogger) WriteQuads(quads []quad.Quad) (int, error) {
	n, err := w.BatchWriter.WriteQuads(quads)
	w.cnt += n
	if clog.V(2) {
		clog.Infof("Wrote %d quads.", w.cnt)
	}
	return n, err
}
