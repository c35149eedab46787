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

// Package backend defines the black-box snapshot-tool contract of
// spec.md §4.3 and its git implementation. Every operation shells out to
// the `git` binary via os/exec — this package never links a git library,
// matching original_source's backend-git crate which does the same
// through std::process::Command.
package backend

import (
	"context"

	"github.com/kraklabs/gpp/internal/types"
)

// Backend is the contract a version graph needs from an underlying
// content-addressed snapshot tool.
type Backend interface {
	// CreateTree snapshots the current working tree and returns an
	// opaque tree identifier.
	CreateTree(ctx context.Context) (string, error)

	// CreateCommit records a new immutable object over treeID with the
	// given parents, returning the new node id.
	CreateCommit(ctx context.Context, treeID string, parents []types.NodeId, author types.Author, message string) (types.NodeId, error)

	// ReadRef resolves a ref name to a node id. A ref that does not
	// exist yields ("", nil), not an error.
	ReadRef(ctx context.Context, ref string) (types.NodeId, error)

	// PushUpdateRef pushes localTip to targetRef at remoteURL.
	PushUpdateRef(ctx context.Context, remoteURL string, localTip types.NodeId, targetRef string) error

	// CheckoutNode restores the working tree to treeID. The caller is
	// responsible for having already switched to the correct context.
	CheckoutNode(ctx context.Context, treeID string) error

	// IsRepoEmpty reports whether the active store has any commits yet.
	IsRepoEmpty(ctx context.Context) (bool, error)

	// Bootstrap initializes a brand-new, empty snapshot store at the
	// backend's current working directory (used by the context
	// multiplexer's lazy-init path).
	Bootstrap(ctx context.Context) error
}
