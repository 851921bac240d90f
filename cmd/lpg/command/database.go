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
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/lpg/clog"
	"github.com/cayleygraph/lpg/graph"
	"github.com/cayleygraph/lpg/internal"
)

const (
	KeyBackend = "store.backend"
	KeyAddress = "store.address"
	KeyOptions = "store.options"

	KeyLoadBatch = "load.batch"
)

const (
	flagLoad       = "load"
	flagLoadFormat = "load_format"
	flagDump       = "dump"
	flagDumpFormat = "dump_format"
)

var ErrNotPersistent = errors.New("database type is not persistent")

func formatNames(reader bool) string {
	var names []string
	for _, f := range quad.Formats() {
		if (reader && f.Reader != nil) || (!reader && f.Writer != nil) {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return `"` + strings.Join(names, `", "`) + `"`
}

func registerLoadFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagLoad, "i", "", `triple file to load (".gz" and ".bz2" supported)`)
	cmd.Flags().String(flagLoadFormat, "", `triple file format to use for loading (`+formatNames(true)+`)`)
}

func registerDumpFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagDump, "o", "", `triple file to dump the database to (".gz" supported, "-" for stdout)`)
	cmd.Flags().String(flagDumpFormat, "", `triple file format to use instead of auto-detection (`+formatNames(false)+`)`)
}

func NewInitDatabaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the lookup index of the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBackendInfo()
			return initDatabase()
		},
	}
}

func NewLoadDatabaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Bulk-load a triple file into the database.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printBackendInfo()
			p, err := setupProfile(cmd)
			if err != nil {
				return err
			}
			defer finishProfile(p)

			load, _ := cmd.Flags().GetString(flagLoad)
			if load == "" && len(args) == 1 {
				load = args[0]
			}
			if load == "" {
				return errors.New("one triple file must be specified")
			}
			if init, _ := cmd.Flags().GetBool("init"); init {
				if err := initDatabase(); err != nil {
					return err
				}
			}
			g, err := openDatabase()
			if err != nil {
				return err
			}
			defer g.Close()

			typ, _ := cmd.Flags().GetString(flagLoadFormat)
			start := time.Now()
			n, err := internal.Load(cmd.Context(), g, loadBatch(), load, typ)
			if err != nil {
				return err
			}
			clog.Infof("loaded %q in %v", load, time.Since(start))
			fmt.Fprintf(cmd.OutOrStdout(), "%d triples were loaded\n", n)

			if dump, _ := cmd.Flags().GetString(flagDump); dump != "" {
				typ, _ := cmd.Flags().GetString(flagDumpFormat)
				return dumpDatabase(cmd, g, dump, typ)
			}
			return nil
		},
	}
	cmd.Flags().Bool("init", false, "initialize the database before loading")
	registerLoadFlags(cmd)
	registerDumpFlags(cmd)
	return cmd
}

func NewDumpDatabaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Bulk-dump the database into a triple file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printBackendInfo()
			dump, _ := cmd.Flags().GetString(flagDump)
			if dump == "" && len(args) == 1 {
				dump = args[0]
			}
			if dump == "" {
				dump = "-"
			}
			g, err := openDatabase()
			if err != nil {
				return err
			}
			defer g.Close()

			typ, _ := cmd.Flags().GetString(flagDumpFormat)
			return dumpDatabase(cmd, g, dump, typ)
		},
	}
	registerDumpFlags(cmd)
	return cmd
}

func NewClearDatabaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all data from the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBackendInfo()
			g, err := openDatabase()
			if err != nil {
				return err
			}
			defer g.Close()
			return g.Clear(cmd.Context())
		},
	}
}

func printBackendInfo() {
	name := viper.GetString(KeyBackend)
	addr := viper.GetString(KeyAddress)
	if addr != "" {
		addr = " (" + addr + ")"
	}
	clog.Infof("using backend %q%s", name, addr)
}

func storeOptions() graph.Options {
	return graph.Options(viper.GetStringMap(KeyOptions))
}

func loadBatch() int {
	if n := viper.GetInt(KeyLoadBatch); n > 0 {
		return n
	}
	return quad.DefaultBatch
}

func initDatabase() error {
	name := viper.GetString(KeyBackend)
	if graph.IsRegistered(name) && !graph.IsPersistent(name) {
		return ErrNotPersistent
	}
	return graph.InitStore(name, viper.GetString(KeyAddress), storeOptions())
}

func openDatabase() (graph.Graph, error) {
	return graph.NewStore(viper.GetString(KeyBackend), viper.GetString(KeyAddress), storeOptions())
}

type profileData struct {
	cpuProfile *os.File
	memPath    string
}

func setupProfile(cmd *cobra.Command) (profileData, error) {
	var p profileData
	if f := cmd.Flag("memprofile"); f != nil {
		p.memPath = f.Value.String()
	}
	if f := cmd.Flag("cpuprofile"); f != nil && f.Value.String() != "" {
		out, err := os.Create(f.Value.String())
		if err != nil {
			return p, fmt.Errorf("could not open CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(out); err != nil {
			out.Close()
			return p, err
		}
		p.cpuProfile = out
	}
	return p, nil
}

func finishProfile(p profileData) {
	if p.cpuProfile != nil {
		pprof.StopCPUProfile()
		p.cpuProfile.Close()
	}
	if p.memPath == "" {
		return
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		clog.Errorf("could not open memory profile file %s: %v", p.memPath, err)
		return
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		clog.Errorf("could not write memory profile file %s: %v", p.memPath, err)
	}
}
