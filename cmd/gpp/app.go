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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/gpp/internal/backend"
	"github.com/kraklabs/gpp/internal/config"
	"github.com/kraklabs/gpp/internal/ctxmux"
	"github.com/kraklabs/gpp/internal/dispatcher"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/graph"
	"github.com/kraklabs/gpp/internal/graphstore"
	"github.com/kraklabs/gpp/internal/push"
)

// app wires together every core subsystem for one CLI invocation,
// rooted at workdir.
type app struct {
	workdir    string
	cfg        *config.Config
	store      *graphstore.Store
	backend    backend.Backend
	mux        *ctxmux.Multiplexer
	graph      *graph.VersionGraph
	pushMgr    *push.Manager
	dispatcher *dispatcher.Dispatcher
}

const graphFileName = "graph.json"
const headFileName = "HEAD"

func loadApp(workdir, configPath string) (*app, error) {
	if configPath == "" {
		configPath = config.Path(workdir)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	gppDir := config.Dir(workdir)
	store, err := graphstore.New(filepath.Join(gppDir, graphFileName))
	if err != nil {
		return nil, err
	}

	b := backend.NewGitBackend(workdir)
	mux := ctxmux.New(workdir, cfg.ObjectStoreDir)
	g := graph.New(store, b, mux, cfg.DefaultContext, cfg.SynthesizeRootOrigin)
	pushMgr := push.New(g, b, cfg.DefaultBranch)
	d := dispatcher.New(g, pushMgr, dispatcher.NewPluginRegistry())

	return &app{
		workdir:    workdir,
		cfg:        cfg,
		store:      store,
		backend:    b,
		mux:        mux,
		graph:      g,
		pushMgr:    pushMgr,
		dispatcher: d,
	}, nil
}

func (a *app) headPath() string {
	return filepath.Join(config.Dir(a.workdir), headFileName)
}

// readHead returns the current HEAD node id, or "" if no commits exist
// yet.
func (a *app) readHead() (string, error) {
	data, err := os.ReadFile(a.headPath()) //nolint:gosec // repository-owned metadata path
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errs.NewIOError("Cannot read HEAD", err.Error(), "", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) writeHead(id string) error {
	if err := os.WriteFile(a.headPath(), []byte(id), 0o600); err != nil {
		return errs.NewIOError("Cannot update HEAD", err.Error(), "", err)
	}
	return nil
}

func repoExists(workdir string) bool {
	_, err := os.Stat(config.Dir(workdir))
	return err == nil
}

func requireRepo(workdir string) error {
	if !repoExists(workdir) {
		return errs.NewValidationError(
			"Not a GPP repository",
			fmt.Sprintf("No %s directory found in %s", config.RepoDirName, workdir),
			"Run 'gpp init' first",
		)
	}
	return nil
}
