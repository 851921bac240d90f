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

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
	"github.com/spf13/cobra"

	"github.com/cayleygraph/lpg/internal"
)

// patternTerm parses one term of a pattern. "?" and "*" match anything.
func patternTerm(s string) (quad.Value, error) {
	switch s {
	case "", "?", "*":
		return nil, nil
	}
	q, err := nquads.Parse("<s> <p> " + s + " .")
	if err != nil {
		return nil, fmt.Errorf("invalid term %s: %w", s, err)
	}
	v := q.Object
	if ts, ok := v.(quad.TypedString); ok {
		// loaders store known datatypes as native values
		if pv, err := ts.ParseValue(); err == nil {
			v = pv
		}
	}
	return v, nil
}

// ParsePattern builds a triple pattern from up to three terms in
// subject, predicate, object order.
func ParsePattern(args []string) (quad.Quad, error) {
	if len(args) > 3 {
		return quad.Quad{}, fmt.Errorf("expected at most 3 terms, got %d", len(args))
	}
	var terms [3]quad.Value
	for i, a := range args {
		v, err := patternTerm(a)
		if err != nil {
			return quad.Quad{}, err
		}
		terms[i] = v
	}
	return quad.Quad{Subject: terms[0], Predicate: terms[1], Object: terms[2]}, nil
}

func NewFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [subject [predicate [object]]]",
		Short: "Print triples matching a pattern.",
		Long: `Print triples matching a pattern. Terms use N-Triples syntax
(<iri>, _:blank, "literal"). A "?" term or a missing term matches anything.`,
		Example: `  lpg find '<http://example.org/alice>' '?' '"Alice"'`,
		Args:    cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := ParsePattern(args)
			if err != nil {
				return err
			}
			g, err := openDatabase()
			if err != nil {
				return err
			}
			defer g.Close()

			typ, _ := cmd.Flags().GetString("format")
			_, err = internal.Write(cmd.Context(), g, pattern, cmd.OutOrStdout(), typ)
			return err
		},
	}
	cmd.Flags().String("format", internal.DefaultFormat, `output format (`+formatNames(false)+`)`)
	return cmd
}

func NewSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of triples in the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := openDatabase()
			if err != nil {
				return err
			}
			defer g.Close()

			n, err := g.Size(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
