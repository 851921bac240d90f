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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cayleygraph/lpg/clog"
	_ "github.com/cayleygraph/lpg/clog/glog"
	"github.com/cayleygraph/lpg/cmd/lpg/command"

	// Load all supported backends.
	_ "github.com/cayleygraph/lpg/graph/all"
)

// Filled in by `go build ldflags="-X main.Version=ver"`.
var (
	Version   = "snapshot"
	BuildDate string
)

func main() {
	root := command.NewRootCmd()
	root.Version = Version
	if BuildDate != "" {
		root.Version += " built " + BuildDate
	}
	// glog flags
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	flag.CommandLine.Parse(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		clog.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
