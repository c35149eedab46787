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

// Package push implements PushManager, spec.md §4.6: a breadth-first
// reachability walk from a node back to a remote's cached head, with a
// per-node contiguity check, followed by a single refspec update.
package push

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kraklabs/gpp/internal/backend"
	"github.com/kraklabs/gpp/internal/errs"
	"github.com/kraklabs/gpp/internal/logx"
	"github.com/kraklabs/gpp/internal/types"
)

// GraphReader is the read-only view PushManager needs into the version
// graph; VersionGraph.GetNode satisfies it.
type GraphReader interface {
	GetNode(id types.NodeId) (*types.Node, error)
}

// Manager computes and executes selective pushes.
type Manager struct {
	graph   GraphReader
	backend backend.Backend
	branch  string
	logger  zerolog.Logger
}

// New builds a Manager. branch is the mainline ref name
// (refs/heads/<branch>); the compiled-in fallback is "main".
func New(graph GraphReader, b backend.Backend, branch string) *Manager {
	if branch == "" {
		branch = "main"
	}
	return &Manager{graph: graph, backend: b, branch: branch, logger: logx.WithComponent("push")}
}

// Report is the structured dry-run output of spec.md §4.6 step 4.
type Report struct {
	RemoteName string
	RemoteURL  string
	Count      int
	TargetRef  string
	Tip        types.NodeId
}

// Push walks the ancestry of nodeID back to remote's cached head,
// verifying remote permission on every visited node, then either
// reports (dryRun) or executes the refspec update. Returns whether any
// work was (or would be) done.
func (m *Manager) Push(ctx context.Context, nodeID types.NodeId, remote types.RemoteRef, dryRun bool) (bool, *Report, error) {
	targetRef := fmt.Sprintf("refs/heads/%s", m.branch)
	cachedRemoteRef := fmt.Sprintf("refs/remotes/%s/%s", remote.Name, m.branch)

	remoteHead, err := m.backend.ReadRef(ctx, cachedRemoteRef)
	if err != nil {
		return false, nil, err
	}

	toPush, err := m.computeNodesToPush(nodeID, remote, remoteHead)
	if err != nil {
		return false, nil, err
	}

	if len(toPush) == 0 {
		m.logger.Debug().Str("remote", remote.Name).Msg("nothing to push")
		return false, nil, nil
	}

	report := &Report{
		RemoteName: remote.Name,
		RemoteURL:  remote.URL,
		Count:      len(toPush),
		TargetRef:  targetRef,
		Tip:        nodeID,
	}

	if dryRun {
		return true, report, nil
	}

	if err := m.backend.PushUpdateRef(ctx, remote.URL, nodeID, targetRef); err != nil {
		return false, nil, err
	}

	m.logger.Info().Str("remote", remote.Name).Int("count", len(toPush)).Msg("pushed")
	return true, report, nil
}

// computeNodesToPush performs the BFS of spec.md §4.6 step 2: walk every
// parent edge from nodeID, stopping a branch when it reaches remoteHead,
// and rejecting any visited node that doesn't permit remote.
func (m *Manager) computeNodesToPush(start types.NodeId, remote types.RemoteRef, remoteHead types.NodeId) ([]types.NodeId, error) {
	var toPush []types.NodeId
	visited := map[types.NodeId]struct{}{start: {}}
	queue := []types.NodeId{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if remoteHead != "" && current == remoteHead {
			continue
		}

		node, err := m.graph.GetNode(current)
		if err != nil {
			return nil, err
		}

		if !node.Remotes.Contains(remote) {
			return nil, errs.NewPushError(string(current), remote.Name)
		}

		toPush = append(toPush, current)

		for _, parent := range node.Parents {
			if _, seen := visited[parent]; !seen {
				visited[parent] = struct{}{}
				queue = append(queue, parent)
			}
		}
	}

	return toPush, nil
}
