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
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gpp/internal/config"
	"github.com/kraklabs/gpp/internal/ctxmux"
	"github.com/kraklabs/gpp/internal/dispatcher"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/types"
	"github.com/kraklabs/gpp/internal/ui"
)

// contextSpec is one positional argument to "init": a bare context name,
// or name=url when the context's remote is already known.
type contextSpec struct {
	Name string
	URL  string
}

// parseContextArgs parses "gpp init ctx1 [ctx2=url …]" positionals, in
// the order given — the first entry becomes the active context.
func parseContextArgs(args []string) []contextSpec {
	if len(args) == 0 {
		return nil
	}
	specs := make([]contextSpec, 0, len(args))
	for _, a := range args {
		if name, url, found := strings.Cut(a, "="); found {
			specs = append(specs, contextSpec{Name: name, URL: url})
		} else {
			specs = append(specs, contextSpec{Name: a})
		}
	}
	return specs
}

// runInit implements "init [ctx1 [ctx2=url …]]" (spec.md §6): create
// .gpp/, bootstrap one object store per named context, bind the first as
// active. When any context is named explicitly, it also records the
// requested contexts (and any explicit urls) as the permission set of a
// synthesized root node, per spec.md §4.5 step 2's
// root-node-with-requestedRemotes branch.
func runInit(args []string, workdir string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Re-initialize even if a repository already exists")
	if err := fs.Parse(args); err != nil {
		errs.FatalError(errs.NewInputError("Cannot parse init flags", err.Error(), "", err), globals.JSON)
	}

	if repoExists(workdir) && !*force {
		ui.Warn("A GPP repository already exists in %s", workdir)
		return
	}

	cfg := config.Default()
	requested := parseContextArgs(fs.Args())
	contexts := requested
	if len(contexts) == 0 {
		contexts = []contextSpec{{Name: cfg.DefaultContext}}
	}
	cfg.DefaultContext = contexts[0].Name

	if err := config.Save(cfg, config.Path(workdir)); err != nil {
		errs.FatalError(err, globals.JSON)
	}

	if err := os.MkdirAll(config.Dir(workdir), 0o750); err != nil {
		errs.FatalError(errs.NewIOError("Cannot create .gpp directory", err.Error(), "", err), globals.JSON)
	}

	var bar *progressbar.ProgressBar
	if !globals.Quiet {
		bar = progressbar.Default(int64(len(contexts)), "bootstrapping object store")
	}

	ctx := context.Background()
	mux := ctxmux.New(workdir, cfg.ObjectStoreDir)
	for _, c := range contexts {
		if err := mux.Switch(ctx, c.Name); err != nil {
			errs.FatalError(err, globals.JSON)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if len(contexts) > 1 {
		// Switch visited every named context in turn to bootstrap it,
		// leaving the last one active; rebind to the first as promised.
		if err := mux.Switch(ctx, contexts[0].Name); err != nil {
			errs.FatalError(err, globals.JSON)
		}
	}

	if len(requested) > 0 {
		a, err := loadApp(workdir, config.Path(workdir))
		if err != nil {
			errs.FatalError(err, globals.JSON)
		}

		remotes := make([]types.RemoteRef, 0, len(requested))
		for _, c := range requested {
			remotes = append(remotes, types.RemoteRef{Name: c.Name, URL: c.URL})
		}

		res, err := a.dispatcher.Dispatch(ctx, dispatcher.Command{
			Kind:             dispatcher.CmdAdd,
			Message:          "Initial commit",
			Author:           currentAuthor(),
			RequestedRemotes: remotes,
		})
		if err != nil {
			errs.FatalError(err, globals.JSON)
		}
		if newID := extractNodeID(res.Message); newID != "" {
			if err := a.writeHead(newID); err != nil {
				errs.FatalError(err, globals.JSON)
			}
		}
	}

	ui.Success("Initialized GPP repository in %s", workdir)
}
