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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/spf13/cobra"

	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/internal"
)

// dumpFormat picks a format by file extension when none is given.
func dumpFormat(path, typ string) string {
	if typ != "" {
		return typ
	}
	ext := filepath.Ext(path)
	if ext == ".gz" {
		ext = filepath.Ext(strings.TrimSuffix(path, ext))
	}
	if f := quad.FormatByExt(ext); f != nil && f.Writer != nil {
		return f.Name
	}
	return internal.DefaultFormat
}

func dumpDatabase(cmd *cobra.Command, g graph.Graph, path, typ string) error {
	typ = dumpFormat(path, typ)
	if path == "-" {
		_, err := internal.Write(cmd.Context(), g, quad.Quad{}, cmd.OutOrStdout(), typ)
		return err
	}
	n, err := internal.Dump(cmd.Context(), g, path, typ)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d triples were written to %q\n", n, path)
	return nil
}
