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

// Package graph implements VersionGraph, spec.md §4.5's business-logic
// layer over GraphStorage and Backend: node creation with remote
// permission inheritance, remote-permission mutation, tag mutation, and
// checkout.
package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/kraklabs/gpp/internal/backend"
	"github.com/kraklabs/gpp/internal/ctxmux"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/logx"
	"github.com/kraklabs/gpp/internal/types"
)

// Storage is the subset of graphstore.Store that VersionGraph needs.
type Storage interface {
	PersistNode(node *types.Node) error
	LoadNode(id types.NodeId) (*types.Node, error)
	ListRoots() ([]*types.Node, error)
	BeginTx() (string, error)
	CommitTx(handle string) error
	RollbackTx(handle string) error
}

// VersionGraph is the central business-logic object: every node-graph
// mutation and read goes through it.
type VersionGraph struct {
	storage Storage
	backend backend.Backend
	ctxmux  *ctxmux.Multiplexer

	defaultContext       string
	synthesizeRootOrigin bool

	logger zerolog.Logger
}

// New builds a VersionGraph. defaultContext is the fallback context
// name Checkout uses when a node carries no remote permissions;
// synthesizeRootOrigin controls whether a root AddNode with no
// requestedRemotes gets a sentinel "origin" RemoteRef.
func New(storage Storage, b backend.Backend, mux *ctxmux.Multiplexer, defaultContext string, synthesizeRootOrigin bool) *VersionGraph {
	return &VersionGraph{
		storage:              storage,
		backend:              b,
		ctxmux:               mux,
		defaultContext:       defaultContext,
		synthesizeRootOrigin: synthesizeRootOrigin,
		logger:               logx.WithComponent("graph"),
	}
}

// AddNode snapshots the current working tree, commits it with the given
// parents, computes the node's remote permissions per spec.md §4.5 step
// 2, and persists the new node along with updated parent back-refs — all
// inside a single transaction. requestedRemotes carries both the name and
// url a caller wants a root node to start with (e.g. "gpp init
// work=git@host:x/y"); for a non-root node only the name is consulted,
// since the url is already fixed by inheritance.
func (g *VersionGraph) AddNode(ctx context.Context, parents []types.NodeId, author types.Author, message string, requestedRemotes []types.RemoteRef) (types.NodeId, error) {
	treeID, err := g.backend.CreateTree(ctx)
	if err != nil {
		return "", err
	}

	id, err := g.backend.CreateCommit(ctx, treeID, parents, author, message)
	if err != nil {
		return "", err
	}

	parentNodes := make([]*types.Node, 0, len(parents))
	for _, p := range parents {
		pn, err := g.storage.LoadNode(p)
		if err != nil {
			return "", err
		}
		parentNodes = append(parentNodes, pn)
	}

	finalRemotes, err := resolveFinalRemotes(parentNodes, requestedRemotes, g.synthesizeRootOrigin)
	if err != nil {
		return "", err
	}

	node := types.NewNode(id, parents, author, message, types.Payload{TreeID: treeID}, finalRemotes)

	tx, err := g.storage.BeginTx()
	if err != nil {
		return "", err
	}

	if err := g.storage.PersistNode(node); err != nil {
		_ = g.storage.RollbackTx(tx)
		return "", err
	}

	for _, pn := range parentNodes {
		pn.Children.Add(id)
		if err := g.storage.PersistNode(pn); err != nil {
			_ = g.storage.RollbackTx(tx)
			return "", err
		}
	}

	if err := g.storage.CommitTx(tx); err != nil {
		return "", err
	}

	g.logger.Debug().Str("node", string(id)).Int("parents", len(parents)).Msg("node added")
	return id, nil
}

// resolveFinalRemotes implements spec.md §4.5 step 2.
func resolveFinalRemotes(parentNodes []*types.Node, requestedRemotes []types.RemoteRef, synthesizeRootOrigin bool) (*types.RemoteSet, error) {
	allowed, err := unionOfParentRemotes(parentNodes)
	if err != nil {
		return nil, err
	}

	isRoot := len(parentNodes) == 0

	if requestedRemotes == nil {
		if isRoot {
			if !synthesizeRootOrigin {
				return types.NewRemoteSet(), nil
			}
			return types.NewRemoteSet(types.RemoteRef{Name: "origin", URL: "", Specs: map[string]string{}}), nil
		}
		return allowed, nil
	}

	final := types.NewRemoteSet()
	if isRoot {
		for _, r := range requestedRemotes {
			final.Add(types.RemoteRef{Name: r.Name, URL: r.URL})
		}
		return final, nil
	}

	for _, r := range requestedRemotes {
		ref, ok := allowed.Get(r.Name)
		if !ok {
			return nil, errs.NewValidationError(
				"Remote not permitted by parents",
				fmt.Sprintf("Requested remote %q is not in the union of parent remotes", r.Name),
				"Grant the remote permission to a parent node first, or drop it from the requested list",
			)
		}
		final.Add(ref)
	}
	return final, nil
}

// unionOfParentRemotes computes the union over all parents' remotes,
// indexed by name. Two parents naming the same remote with different
// urls is a RemoteConflict; same name and url is deduplicated silently.
func unionOfParentRemotes(parentNodes []*types.Node) (*types.RemoteSet, error) {
	union := types.NewRemoteSet()
	seenByName := make(map[string]types.RemoteRef)

	for _, pn := range parentNodes {
		for _, r := range pn.SortedRemotes() {
			if existing, ok := seenByName[r.Name]; ok {
				if existing.URL != r.URL {
					return nil, errs.NewRemoteConflictError(r.Name, existing.URL, r.URL)
				}
				continue
			}
			seenByName[r.Name] = r
			union.Add(r)
		}
	}
	return union, nil
}

// AddRemotePermission performs a transactional set-insert of remote into
// nodeID's remotes, identity by (name, url).
func (g *VersionGraph) AddRemotePermission(nodeID types.NodeId, remote types.RemoteRef) error {
	return g.mutateNode(nodeID, func(n *types.Node) {
		n.Remotes.Add(remote)
	})
}

// RemoveRemotePermission deletes any remote entry matching name
// (url ignored) from nodeID's remotes.
func (g *VersionGraph) RemoveRemotePermission(nodeID types.NodeId, name string) error {
	return g.mutateNode(nodeID, func(n *types.Node) {
		n.Remotes.RemoveByName(name)
	})
}

// AddTag inserts or replaces a tag on nodeID.
func (g *VersionGraph) AddTag(nodeID types.NodeId, name string, meta map[string]string) error {
	return g.mutateNode(nodeID, func(n *types.Node) {
		n.AddTag(types.Tag{Name: name, CreatedAt: time.Now(), Meta: meta})
	})
}

// RemoveTag deletes a tag by name from nodeID.
func (g *VersionGraph) RemoveTag(nodeID types.NodeId, name string) error {
	return g.mutateNode(nodeID, func(n *types.Node) {
		n.RemoveTag(name)
	})
}

func (g *VersionGraph) mutateNode(nodeID types.NodeId, mutate func(n *types.Node)) error {
	tx, err := g.storage.BeginTx()
	if err != nil {
		return err
	}

	node, err := g.storage.LoadNode(nodeID)
	if err != nil {
		_ = g.storage.RollbackTx(tx)
		return err
	}

	mutate(node)

	if err := g.storage.PersistNode(node); err != nil {
		_ = g.storage.RollbackTx(tx)
		return err
	}

	return g.storage.CommitTx(tx)
}

// Checkout loads nodeID, switches the active context to its owning
// remote (or the configured default context if it has none), clears any
// stale lock file inside the now-active store, and restores the working
// tree to the node's snapshot.
func (g *VersionGraph) Checkout(ctx context.Context, nodeID types.NodeId) error {
	node, err := g.storage.LoadNode(nodeID)
	if err != nil {
		return err
	}

	targetContext := g.defaultContext
	if remotes := node.SortedRemotes(); len(remotes) > 0 {
		targetContext = remotes[0].Name
	}

	if err := g.ctxmux.Switch(ctx, targetContext); err != nil {
		return err
	}

	lockPath := filepath.Join(g.ctxmux.ActivePath(), "index.lock")
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		g.logger.Warn().Str("path", lockPath).Err(err).Msg("could not remove stale lock file")
	}

	if err := g.backend.CheckoutNode(ctx, node.Payload.TreeID); err != nil {
		return err
	}

	g.logger.Debug().Str("node", string(nodeID)).Str("context", targetContext).Msg("checked out")
	return nil
}

// ListRoots delegates to storage.
func (g *VersionGraph) ListRoots() ([]*types.Node, error) {
	return g.storage.ListRoots()
}

// GetNode delegates to storage; PushManager's only read path into the
// graph.
func (g *VersionGraph) GetNode(id types.NodeId) (*types.Node, error) {
	return g.storage.LoadNode(id)
}
