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
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
)

// NewWriter returns a triple writer for a format name.
func NewWriter(w io.Writer, typ string) (quad.WriteCloser, error) {
	switch typ {
	case "", "quad":
		typ = DefaultFormat
	}
	format := quad.FormatByName(typ)
	if format == nil {
		return nil, fmt.Errorf("unsupported format: %q", typ)
	} else if format.Writer == nil {
		return nil, fmt.Errorf("encoding in %s format is not supported", typ)
	}
	return format.Writer(w), nil
}

// Write encodes all triples matching a pattern. It returns the number
// of written triples.
func Write(ctx context.Context, g graph.Graph, pattern quad.Quad, w io.Writer, typ string) (int, error) {
	qw, err := NewWriter(w, typ)
	if err != nil {
		return 0, err
	}
	defer qw.Close()

	qr := graph.NewQuadReader(ctx, g.Find(ctx, pattern))
	defer qr.Close()

	n, err := quad.Copy(qw, qr)
	if err != nil {
		return n, err
	}
	return n, qw.Close()
}

// Dump the content of the database into a file based
// on a few different formats. File "-" is stdout.
func Dump(ctx context.Context, g graph.Graph, outFile, typ string) (int, error) {
	var f *os.File
	if outFile == "-" {
		f = os.Stdout
	} else {
		var err error
		f, err = os.Create(outFile)
		if err != nil {
			return 0, fmt.Errorf("could not open file %q: %w", outFile, err)
		}
		defer f.Close()
		clog.Infof("dumping db to file %q", outFile)
	}

	var w io.Writer = f
	if filepath.Ext(outFile) == ".gz" {
		gz := gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}
	n, err := Write(ctx, g, quad.Quad{}, w, typ)
	if err != nil {
		return n, err
	}
	if outFile != "-" {
		clog.Infof("%d entries were written", n)
	}
	return n, nil
}
