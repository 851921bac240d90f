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

// Package decompressor detects compressed triple dumps.
package decompressor

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
)

// Kind is a compression format.
type Kind int

const (
	Raw = Kind(iota)
	Gzip
	Bzip2
)

func (k Kind) String() string {
	switch k {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	}
	return "raw"
}

var magic = []struct {
	kind   Kind
	prefix []byte
}{
	{Gzip, []byte("\x1f\x8b")},
	{Bzip2, []byte("BZh")},
}

// Detect returns the compression format of a stream and a reader
// that still yields the whole stream.
func Detect(r io.Reader) (Kind, *bufio.Reader, error) {
	br := bufio.NewReader(r)
	buf, err := br.Peek(3)
	if err == io.EOF {
		// short streams are never compressed
		err = nil
	}
	if err != nil {
		return Raw, br, err
	}
	for _, m := range magic {
		if bytes.HasPrefix(buf, m.prefix) {
			return m.kind, br, nil
		}
	}
	return Raw, br, nil
}

// New wraps a reader with a decompressor if the stream is compressed.
// An empty stream gives io.EOF.
func New(r io.Reader) (io.Reader, error) {
	kind, br, err := Detect(r)
	if err != nil {
		return nil, err
	}
	switch kind {
	case Gzip:
		return gzip.NewReader(br)
	case Bzip2:
		return bzip2.NewReader(br), nil
	}
	if _, err := br.Peek(1); err != nil {
		return nil, err
	}
	return br, nil
}
