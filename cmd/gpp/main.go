// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the gpp CLI: an experimental version-control
// layer with per-node selective-push permissions across multiple
// isolated remote contexts.
//
// Usage:
//
//	gpp init                                  Create a new repository
//	gpp add -m <message>                      Snapshot and commit a new node
//	gpp log                                   Show history from the roots
//	gpp checkout <node>                       Restore a node's working tree
//	gpp chrm --remote N --url U [--node ID] [--remove]   Manage remote permissions
//	gpp push --remote N --url U [--node ID] [--dry-run]  Selectively push
//	gpp status                                Show HEAD and repository info
//	gpp config                                Show effective configuration
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gpp/internal/logx"
	"github.com/kraklabs/gpp/internal/ui"
)

// GlobalFlags holds the flags that apply to every subcommand.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .gpp/config.yaml (default: .gpp/config.yaml in the current directory)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format where applicable")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `gpp - an experimental version-control layer with selective push

Usage:
  gpp <command> [options]

Commands:
  init        Create a new repository in the current directory
  add         Snapshot the working tree and create a new node
  log         Show history, breadth-first from the roots
  checkout    Restore a node's working tree and switch context
  chrm        Add or remove a node's permission to push to a remote
  push        Selectively push reachable nodes to a remote
  status      Show HEAD and repository info
  config      Show effective configuration

Global Options:
  --json            Output in JSON format where applicable
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to .gpp/config.yaml
  -V, --version     Show version and exit

For detailed command help: gpp <command> --help
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Println("gpp version dev")
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{JSON: *jsonOutput, NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}
	ui.InitColors(globals.NoColor)

	level := logx.ErrorLevel
	switch {
	case globals.Verbose >= 2:
		level = logx.DebugLevel
	case globals.Verbose == 1:
		level = logx.InfoLevel
	}
	logx.Init(logx.Config{Level: level, JSONOutput: globals.JSON})

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	workdir, err := os.Getwd()
	if err != nil {
		ui.Fail("Cannot determine working directory: %v", err)
		os.Exit(1)
	}

	switch command {
	case "init":
		runInit(cmdArgs, workdir, globals)
	case "add":
		runAdd(cmdArgs, workdir, *configPath, globals)
	case "log":
		runLog(cmdArgs, workdir, *configPath, globals)
	case "checkout":
		runCheckout(cmdArgs, workdir, *configPath, globals)
	case "chrm":
		runChangeRemote(cmdArgs, workdir, *configPath, globals)
	case "push":
		runPush(cmdArgs, workdir, *configPath, globals)
	case "status":
		runStatus(cmdArgs, workdir, *configPath, globals)
	case "config":
		runConfigCmd(cmdArgs, workdir, *configPath, globals)
	default:
		ui.Fail("Unknown command: %s", command)
		flag.Usage()
		os.Exit(1)
	}
}
