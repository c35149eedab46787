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

// Package graphstore implements the GraphStorage contract of spec.md
// §4.2: a durable map of node id -> Node, backed by a single JSON image
// with begin/commit/rollback transaction semantics and an atomic
// temp-file-then-rename commit.
package graphstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/logx"
	"github.com/kraklabs/gpp/internal/types"
)

// Store is the GraphStorage implementation: a JSON-backed node map with
// atomic commit, matching the teacher's ManifestManager persistence shape
// (pkg/ingestion/manifest.go) and original_source's storage-file crate's
// transaction semantics.
type Store struct {
	path string

	mu     sync.RWMutex
	nodes  map[types.NodeId]*types.Node
	tx     *txState
	logger zerolog.Logger
}

// txState snapshots the in-memory image at BeginTx so RollbackTx can
// restore it, per spec.md §4.2.
type txState struct {
	handle  string
	snap    map[types.NodeId]*types.Node
	existed bool
}

type onDiskGraph struct {
	Nodes map[types.NodeId]*types.Node `json:"nodes"`
}

// New opens (or creates) a Store backed by the JSON file at path. The
// parent directory is created if missing.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errs.NewIOError("Cannot create graph storage directory",
			err.Error(), "Check filesystem permissions for the repository directory", err)
	}

	s := &Store{
		path:   path,
		nodes:  make(map[types.NodeId]*types.Node),
		logger: logx.WithComponent("graphstore"),
	}

	loaded, existed, err := s.readFromDisk()
	if err != nil {
		return nil, err
	}
	if existed {
		s.nodes = loaded
	}

	return s, nil
}

func (s *Store) readFromDisk() (map[types.NodeId]*types.Node, bool, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // path is owned by this repository's .gpp directory
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[types.NodeId]*types.Node), false, nil
		}
		return nil, false, errs.NewIOError("Cannot read graph storage", err.Error(),
			"Check that .gpp/graph.json is readable", err)
	}

	var image onDiskGraph
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, false, errs.NewSerdeError("Cannot parse graph storage", err.Error(),
			"graph.json is corrupt; restore it from a backup or re-init the repository", err)
	}
	if image.Nodes == nil {
		image.Nodes = make(map[types.NodeId]*types.Node)
	}
	return image.Nodes, true, nil
}

// PersistNode is an idempotent upsert keyed by node.ID. During an open
// transaction this mutates only the in-memory image; CommitTx makes it
// durable.
func (s *Store) PersistNode(node *types.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.ID] = node.Clone()
	return nil
}

// LoadNode returns the node or a NotFound error.
func (s *Store) LoadNode(id types.NodeId) (*types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, errs.NewNotFoundError(string(id))
	}
	return n.Clone(), nil
}

// ListRoots returns every node whose Parents is empty.
func (s *Store) ListRoots() ([]*types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roots []*types.Node
	for _, n := range s.nodes {
		if n.IsRoot() {
			roots = append(roots, n.Clone())
		}
	}
	return roots, nil
}

// BeginTx snapshots the in-memory image (itself loaded from the on-disk
// image at New/last-commit time) so RollbackTx can restore it.
func (s *Store) BeginTx() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx != nil {
		return "", errs.NewTxError("Transaction already open",
			"BeginTx was called while a transaction was already in progress",
			"Commit or roll back the open transaction before starting another", nil)
	}

	snap := make(map[types.NodeId]*types.Node, len(s.nodes))
	for id, n := range s.nodes {
		snap[id] = n.Clone()
	}

	handle := uuid.NewString()
	s.tx = &txState{handle: handle, snap: snap}
	s.logger.Debug().Str("tx", handle).Msg("transaction begun")
	return handle, nil
}

// CommitTx atomically replaces the on-disk image with the current
// in-memory image (write to a sibling temp path, then rename). A failed
// rename leaves the old image intact.
func (s *Store) CommitTx(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTx(handle); err != nil {
		return err
	}

	data, err := json.MarshalIndent(onDiskGraph{Nodes: s.nodes}, "", "  ")
	if err != nil {
		s.tx = nil
		return errs.NewSerdeError("Cannot encode graph storage", err.Error(),
			"This is a bug; please report it", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.tx = nil
		return errs.NewIOError("Cannot write graph storage", err.Error(),
			"Check disk space and filesystem permissions", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		s.tx = nil
		return errs.NewTxError("Cannot commit graph storage", err.Error(),
			"The previous graph.json is still intact; retry the operation", err)
	}

	s.logger.Debug().Str("tx", handle).Int("nodes", len(s.nodes)).Msg("transaction committed")
	s.tx = nil
	return nil
}

// RollbackTx restores the in-memory image from the pre-transaction
// snapshot.
func (s *Store) RollbackTx(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTx(handle); err != nil {
		return err
	}

	s.nodes = s.tx.snap
	s.logger.Debug().Str("tx", handle).Msg("transaction rolled back")
	s.tx = nil
	return nil
}

func (s *Store) checkTx(handle string) error {
	if s.tx == nil {
		return errs.NewTxError("No open transaction", fmt.Sprintf("handle %q does not match an open transaction", handle),
			"", nil)
	}
	if s.tx.handle != handle {
		return errs.NewTxError("Transaction handle mismatch",
			fmt.Sprintf("expected %q, got %q", s.tx.handle, handle), "", nil)
	}
	return nil
}
