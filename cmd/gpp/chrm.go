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
	"github.com/kraklabs/gpp/internal/types"
	"github.com/kraklabs/gpp/internal/ui"
)

// runChangeRemote implements "chrm": grant or revoke a node's permission
// to push to a named remote, per spec.md §4.5's RemoteRef identity rules.
func runChangeRemote(args []string, workdir, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("chrm", flag.ExitOnError)
	remoteName := fs.String("remote", "", "Remote name (required)")
	remoteURL := fs.String("url", "", "Remote url (required unless --remove)")
	nodeArg := fs.String("node", "", "Node id (default: HEAD)")
	remove := fs.Bool("remove", false, "Revoke the permission instead of granting it")
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse chrm flags", err.Error(), "", err), globals.JSON)
	}
	if *remoteName == "" {
		errs.FatalError(errs.NewInputError("Remote name required", "The --remote flag is required", "", nil), globals.JSON)
	}
	if !*remove && *remoteURL == "" {
		errs.FatalError(errs.NewInputError("Remote url required", "The --url flag is required unless --remove is set", "", nil), globals.JSON)
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
		Kind:       dispatcher.CmdChangeRemote,
		Node:       nodeID,
		RemoteName: *remoteName,
		RemoteURL:  *remoteURL,
		Remove:     *remove,
	})
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	ui.Success("%s", res.Message)
}

// resolveNodeArg returns nodeArg as a NodeId if set, else falls back to
// the current HEAD.
func resolveNodeArg(a *app, nodeArg string, globals GlobalFlags) (types.NodeId, error) {
	if nodeArg != "" {
		return types.NodeId(nodeArg), nil
	}
	head, err := a.readHead()
	if err != nil {
		return "", err
	}
	if head == "" {
		return "", errs.NewInputError("No node to operate on", "HEAD is empty and --node was not given", "Run 'gpp add' first or pass --node", nil)
	}
	return types.NodeId(head), nil
}
