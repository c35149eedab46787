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
	"encoding/json"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/types"
	"github.com/kraklabs/gpp/internal/ui"
)

// statusInfo is the JSON shape of "status", kept separate from app so the
// CLI never serializes internal subsystem handles.
type statusInfo struct {
	Head          string   `json:"head"`
	ActiveContext string   `json:"active_context"`
	Contexts      []string `json:"known_contexts"`
	DefaultBranch string   `json:"default_branch"`
}

// runStatus implements the supplemented read-only "status" command: HEAD,
// the active context-multiplexer binding, and the known contexts on disk.
func runStatus(args []string, workdir, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse status flags", err.Error(), "", err), globals.JSON)
	}

	if err := requireRepo(workdir); err != nil {
		errs.FatalError(err, globals.JSON)
	}

	a, err := loadApp(workdir, configPath)
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	head, err := a.readHead()
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	active, err := a.mux.Active()
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	contexts, err := a.mux.Contexts()
	if err != nil {
		errs.FatalError(err, globals.JSON)
	}

	info := statusInfo{
		Head:          head,
		ActiveContext: active,
		Contexts:      contexts,
		DefaultBranch: a.cfg.DefaultBranch,
	}

	if globals.JSON {
		enc, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(enc))
		return
	}

	headDisplay := info.Head
	if headDisplay == "" {
		headDisplay = "(no commits yet)"
	}
	ui.Plain("HEAD: %s", headDisplay)
	ui.Plain("Active context: %s", displayOrNone(info.ActiveContext))
	ui.Plain("Known contexts: %s", joinOrNone(info.Contexts))
	ui.Plain("Default branch: %s", info.DefaultBranch)

	if info.Head != "" {
		node, err := a.graph.GetNode(types.NodeId(info.Head))
		if err == nil {
			ui.Plain("HEAD remotes: %s", joinRemotes(node.SortedRemotes()))
		}
	}
}

func displayOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	out := items[0]
	for _, item := range items[1:] {
		out += ", " + item
	}
	return out
}

func joinRemotes(refs []types.RemoteRef) string {
	if len(refs) == 0 {
		return "(none)"
	}
	out := refs[0].Name
	for _, r := range refs[1:] {
		out += ", " + r.Name
	}
	return out
}
