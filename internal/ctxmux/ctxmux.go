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

// Package ctxmux implements the Context Multiplexer of spec.md §4.4: it
// binds a working directory's object-store pointer (a symlink named
// after linkName, conventionally ".git") to one of several physical
// stores living alongside it (".git_<context>"), switching the active
// store with an atomic link swap and lazily bootstrapping stores that
// don't exist yet.
package ctxmux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kraklabs/gpp/internal/backend"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/logx"
)

// Multiplexer owns the active-store link under workdir. Every Switch
// call is serialized by mu, matching spec.md §4.4's single-writer
// requirement — two goroutines must never race to swap the link.
type Multiplexer struct {
	workdir  string
	linkName string

	mu     sync.Mutex
	logger zerolog.Logger
}

// New returns a Multiplexer managing the link workdir/linkName (e.g.
// ".git").
func New(workdir, linkName string) *Multiplexer {
	return &Multiplexer{
		workdir:  workdir,
		linkName: linkName,
		logger:   logx.WithComponent("ctxmux"),
	}
}

func (m *Multiplexer) linkPath() string {
	return filepath.Join(m.workdir, m.linkName)
}

// ActivePath returns the path through the active-store link (e.g.
// "<workdir>/.git"). Callers that need to reach inside the currently
// bound object store — a lock file, a config file — join onto this
// instead of guessing the link name themselves.
func (m *Multiplexer) ActivePath() string {
	return m.linkPath()
}

func (m *Multiplexer) storeDirName(ctxName string) string {
	return fmt.Sprintf("%s_%s", m.linkName, ctxName)
}

func (m *Multiplexer) storePath(ctxName string) string {
	return filepath.Join(m.workdir, m.storeDirName(ctxName))
}

// Active returns the context name the link currently points to, or ""
// if no link exists yet.
func (m *Multiplexer) Active() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active()
}

func (m *Multiplexer) active() (string, error) {
	target, err := os.Readlink(m.linkPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errs.NewUnsafeContextError(m.linkPath())
	}
	prefix := m.linkName + "_"
	base := filepath.Base(target)
	if len(base) <= len(prefix) || base[:len(prefix)] != prefix {
		return "", errs.NewInternalError("Unrecognized active-store link target",
			fmt.Sprintf("link %q points at %q, which doesn't match the %q naming convention", m.linkPath(), target, prefix),
			"", nil)
	}
	return base[len(prefix):], nil
}

// Switch atomically rebinds the link to ctxName's store, bootstrapping
// that store if it doesn't exist yet. It refuses to proceed if a real
// directory (not a symlink) sits at the link path, per spec.md §4.4's
// UnsafeContext guard.
func (m *Multiplexer) Switch(ctx context.Context, ctxName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link := m.linkPath()
	target := m.storePath(ctxName)

	if current, err := m.active(); err == nil && current == ctxName {
		return nil
	}

	info, err := os.Lstat(link)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink == 0 {
			return errs.NewUnsafeContextError(link)
		}
		if err := os.Remove(link); err != nil {
			return errs.NewIOError("Cannot remove active-store link", err.Error(),
				"Check filesystem permissions", err)
		}
	case !os.IsNotExist(err):
		return errs.NewIOError("Cannot stat active-store link", err.Error(), "", err)
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		if err := m.bootstrap(ctx, ctxName, target); err != nil {
			return err
		}
	} else if err != nil {
		return errs.NewIOError("Cannot stat object store", err.Error(), "", err)
	}

	if err := os.Symlink(m.storeDirName(ctxName), link); err != nil {
		return errs.NewIOError("Cannot bind active-store link", err.Error(),
			"Check filesystem permissions and that the path supports symlinks", err)
	}

	m.logger.Debug().Str("context", ctxName).Msg("context switched")
	return nil
}

// bootstrap creates a brand-new object store for ctxName by running git
// init in a scratch directory, then renaming the result into place. The
// scratch step keeps initialization from ever touching the
// currently-active store. This always bootstraps via GitBackend
// regardless of which Backend implementation callers pass to other
// operations — the link-swap dance is inherently tied to git's on-disk
// layout.
func (m *Multiplexer) bootstrap(ctx context.Context, ctxName, target string) error {
	scratch := filepath.Join(m.workdir, ".gppctxmux_init_"+ctxName)
	if err := os.RemoveAll(scratch); err != nil {
		return errs.NewIOError("Cannot clear stale bootstrap scratch dir", err.Error(), "", err)
	}
	if err := os.MkdirAll(scratch, 0o750); err != nil {
		return errs.NewIOError("Cannot create bootstrap scratch dir", err.Error(), "", err)
	}
	defer os.RemoveAll(scratch) //nolint:errcheck // best-effort cleanup

	scratchBackend := backend.NewGitBackend(scratch)
	if err := scratchBackend.Bootstrap(ctx); err != nil {
		return err
	}

	generated := filepath.Join(scratch, m.linkName)
	if err := os.Rename(generated, target); err != nil {
		return errs.NewIOError("Cannot install bootstrapped object store", err.Error(), "", err)
	}

	m.logger.Debug().Str("context", ctxName).Msg("object store bootstrapped")
	return nil
}

// Contexts lists the context names with a physical store already
// present alongside workdir, by scanning for linkName_* directories.
func (m *Multiplexer) Contexts() ([]string, error) {
	entries, err := os.ReadDir(m.workdir)
	if err != nil {
		return nil, errs.NewIOError("Cannot list contexts", err.Error(), "", err)
	}
	prefix := m.linkName + "_"
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if len(e.Name()) > len(prefix) && e.Name()[:len(prefix)] == prefix {
			names = append(names, e.Name()[len(prefix):])
		}
	}
	return names, nil
}
