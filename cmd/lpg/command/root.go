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

// Package command implements the subcommands of the lpg tool.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/graph/cypher"
)

const (
	EnvPrefix  = "LPG"
	ConfigName = "lpg"

	DefaultBackend = "falkordb"
	DefaultAddress = "localhost:6379"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lpg",
		Short:         "RDF triple store on top of a property graph database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to an explicit configuration file")
	flags.StringP("backend", "d", DefaultBackend, `database backend (`+strings.Join(graph.Stores(), ", ")+`)`)
	flags.StringP("address", "a", DefaultAddress, "address of the database")
	flags.StringToString("opt", nil, "backend option as key=value, may be repeated")
	flags.Int("batch", quad.DefaultBatch, "number of triples in a single load transaction")
	flags.String("cpuprofile", "", "path to output CPU profile")
	flags.String("memprofile", "", "path to output memory profile")

	root.AddCommand(
		NewInitDatabaseCmd(),
		NewLoadDatabaseCmd(),
		NewDumpDatabaseCmd(),
		NewClearDatabaseCmd(),
		NewFindCmd(),
		NewSizeCmd(),
		NewHealthCmd(),
	)
	return root
}

// initConfig resolves settings with precedence flag > env > file > default.
func initConfig(cmd *cobra.Command) error {
	v := viper.GetViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("cannot read config file %q: %w", file, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/." + ConfigName)
		v.AddConfigPath("/etc")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("cannot read config: %w", err)
			}
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, name := range map[string]string{
		KeyBackend:   "backend",
		KeyAddress:   "address",
		KeyLoadBatch: "batch",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	opts, err := flags.GetStringToString("opt")
	if err != nil {
		return err
	}
	if len(opts) != 0 {
		merged := v.GetStringMap(KeyOptions)
		for k, s := range opts {
			val, err := optionValue(k, s)
			if err != nil {
				return err
			}
			merged[k] = val
		}
		v.Set(KeyOptions, merged)
	}
	return nil
}

// optionValue converts a textual option to the type expected by the backends.
// Options not listed here are passed as strings.
func optionValue(key, s string) (interface{}, error) {
	switch key {
	case cypher.OptMaxBatch:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option %q: %w", key, s, err)
		}
		return n, nil
	case cypher.OptEnsureIndex:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option %q: %w", key, s, err)
		}
		return b, nil
	}
	return s, nil
}
