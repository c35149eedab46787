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

package main

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gpp/internal/dispatcher"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/ui"
)

// runPush implements "push": walk from a node to the remote's cached
// head and push the walked nodes; the push fails if any walked node does
// not permit that remote.
func runPush(args []string, workdir, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	remoteName := fs.String("remote", "", "Remote name (required)")
	remoteURL := fs.String("url", "", "Remote url (required)")
	nodeArg := fs.String("node", "", "Node id to push from (default: HEAD)")
	dryRun := fs.Bool("dry-run", false, "Report what would be pushed without mutating anything")
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse push flags", err.Error(), "", err), globals.JSON)
	}
	if *remoteName == "" || *remoteURL == "" {
		errs.FatalError(errs.NewInputError("Remote required", "Both --remote and --url are required", "", nil), globals.JSON)
	}

	if err := requireRepo(workdir); err != nil {
		errs.FatalError(err, globals.JSON)
	}

	a, err := loadApp(workdir, configPath)
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	nodeID, err := resolveNodeArg(a, *nodeArg, globals)
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	res, err := a.dispatcher.Dispatch(context.Background(), dispatcher.Command{
		Kind:       dispatcher.CmdPush,
		Node:       nodeID,
		RemoteName: *remoteName,
		RemoteURL:  *remoteURL,
		DryRun:     *dryRun,
	})
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	if res.Kind == dispatcher.ResultOutput {
		ui.Plain("%s", res.Message)
		return
	}
	ui.Success("%s", res.Message)
}
