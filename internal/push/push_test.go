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

package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gpp/internal/types"
)

type fakeGraph struct {
	nodes map[types.NodeId]*types.Node
}

func (g *fakeGraph) GetNode(id types.NodeId) (*types.Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, assertNotFound(id)
	}
	return n, nil
}

func assertNotFound(id types.NodeId) error {
	return &notFoundErr{id: id}
}

type notFoundErr struct{ id types.NodeId }

func (e *notFoundErr) Error() string { return "node not found: " + string(e.id) }

type fakePushBackend struct {
	refs        map[string]types.NodeId
	pushedTip   types.NodeId
	pushedRef   string
	pushedURL   string
	pushedCalls int
}

func (f *fakePushBackend) CreateTree(ctx context.Context) (string, error) { return "", nil }
func (f *fakePushBackend) CreateCommit(ctx context.Context, treeID string, parents []types.NodeId, author types.Author, message string) (types.NodeId, error) {
	return "", nil
}
func (f *fakePushBackend) ReadRef(ctx context.Context, ref string) (types.NodeId, error) {
	return f.refs[ref], nil
}
func (f *fakePushBackend) PushUpdateRef(ctx context.Context, remoteURL string, localTip types.NodeId, targetRef string) error {
	f.pushedURL = remoteURL
	f.pushedTip = localTip
	f.pushedRef = targetRef
	f.pushedCalls++
	return nil
}
func (f *fakePushBackend) CheckoutNode(ctx context.Context, treeID string) error { return nil }
func (f *fakePushBackend) IsRepoEmpty(ctx context.Context) (bool, error)         { return false, nil }
func (f *fakePushBackend) Bootstrap(ctx context.Context) error                   { return nil }

func node(id types.NodeId, parents []types.NodeId, remotes ...types.RemoteRef) *types.Node {
	n := types.NewNode(id, parents, types.Author{Name: "a", Email: "a@x.com"}, "msg", types.Payload{TreeID: "t-" + string(id)}, types.NewRemoteSet(remotes...))
	return n
}

var remoteFork = types.RemoteRef{Name: "fork", URL: "https://fork"}

func TestPushFirstPushWalksAllAncestors(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{
		"a": node("a", nil, remoteFork),
		"b": node("b", []types.NodeId{"a"}, remoteFork),
		"c": node("c", []types.NodeId{"b"}, remoteFork),
	}}
	b := &fakePushBackend{refs: map[string]types.NodeId{}}
	m := New(g, b, "main")

	didWork, report, err := m.Push(context.Background(), "c", remoteFork, false)
	require.NoError(t, err)
	assert.True(t, didWork)
	require.NotNil(t, report)
	assert.Equal(t, 3, report.Count)
	assert.Equal(t, 1, b.pushedCalls)
	assert.Equal(t, types.NodeId("c"), b.pushedTip)
	assert.Equal(t, "refs/heads/main", b.pushedRef)
}

func TestPushStopsAtRemoteHead(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{
		"a": node("a", nil, remoteFork),
		"b": node("b", []types.NodeId{"a"}, remoteFork),
		"c": node("c", []types.NodeId{"b"}, remoteFork),
	}}
	b := &fakePushBackend{refs: map[string]types.NodeId{"refs/remotes/fork/main": "b"}}
	m := New(g, b, "main")

	didWork, report, err := m.Push(context.Background(), "c", remoteFork, false)
	require.NoError(t, err)
	assert.True(t, didWork)
	assert.Equal(t, 1, report.Count)
}

func TestPushNothingToDoWhenAtRemoteHead(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{
		"a": node("a", nil, remoteFork),
	}}
	b := &fakePushBackend{refs: map[string]types.NodeId{"refs/remotes/fork/main": "a"}}
	m := New(g, b, "main")

	didWork, report, err := m.Push(context.Background(), "a", remoteFork, false)
	require.NoError(t, err)
	assert.False(t, didWork)
	assert.Nil(t, report)
	assert.Zero(t, b.pushedCalls)
}

func TestPushContiguityBrokenRejectsMissingPermission(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{
		"a": node("a", nil),
		"b": node("b", []types.NodeId{"a"}, remoteFork),
	}}
	b := &fakePushBackend{refs: map[string]types.NodeId{}}
	m := New(g, b, "main")

	_, _, err := m.Push(context.Background(), "b", remoteFork, false)
	require.Error(t, err)
	assert.Zero(t, b.pushedCalls)
}

func TestPushDryRunDoesNotMutate(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{
		"a": node("a", nil, remoteFork),
	}}
	b := &fakePushBackend{refs: map[string]types.NodeId{}}
	m := New(g, b, "main")

	didWork, report, err := m.Push(context.Background(), "a", remoteFork, true)
	require.NoError(t, err)
	assert.True(t, didWork)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Count)
	assert.Zero(t, b.pushedCalls)
}

func TestPushMultiParentWalksAllBranches(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{
		"a": node("a", nil, remoteFork),
		"b": node("b", nil, remoteFork),
		"c": node("c", []types.NodeId{"a", "b"}, remoteFork),
	}}
	b := &fakePushBackend{refs: map[string]types.NodeId{}}
	m := New(g, b, "main")

	_, report, err := m.Push(context.Background(), "c", remoteFork, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Count)
}

func TestPushUsesDefaultBranchWhenEmpty(t *testing.T) {
	g := &fakeGraph{nodes: map[types.NodeId]*types.Node{"a": node("a", nil, remoteFork)}}
	b := &fakePushBackend{refs: map[string]types.NodeId{}}
	m := New(g, b, "")

	_, _, err := m.Push(context.Background(), "a", remoteFork, false)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", b.pushedRef)
}
