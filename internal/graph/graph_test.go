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

package graph

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gpp/internal/ctxmux"
	"github.com/kraklabs/gpp/internal/graphstore"
	"github.com/kraklabs/gpp/internal/types"
)

// fakeBackend is an in-memory stand-in for backend.Backend, so graph
// logic can be tested without shelling out to git.
type fakeBackend struct {
	treeCounter   int
	commitCounter int
	checkoutCalls []string
	refs          map[string]types.NodeId
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{refs: make(map[string]types.NodeId)}
}

func (f *fakeBackend) CreateTree(ctx context.Context) (string, error) {
	f.treeCounter++
	return fmt.Sprintf("tree-%d", f.treeCounter), nil
}

func (f *fakeBackend) CreateCommit(ctx context.Context, treeID string, parents []types.NodeId, author types.Author, message string) (types.NodeId, error) {
	f.commitCounter++
	return types.NodeId(fmt.Sprintf("commit-%d", f.commitCounter)), nil
}

func (f *fakeBackend) ReadRef(ctx context.Context, ref string) (types.NodeId, error) {
	return f.refs[ref], nil
}

func (f *fakeBackend) PushUpdateRef(ctx context.Context, remoteURL string, localTip types.NodeId, targetRef string) error {
	return nil
}

func (f *fakeBackend) CheckoutNode(ctx context.Context, treeID string) error {
	f.checkoutCalls = append(f.checkoutCalls, treeID)
	return nil
}

func (f *fakeBackend) IsRepoEmpty(ctx context.Context) (bool, error) {
	return f.commitCounter == 0, nil
}

func (f *fakeBackend) Bootstrap(ctx context.Context) error {
	return nil
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newTestGraph(t *testing.T, defaultContext string, synthesizeRootOrigin bool) (*VersionGraph, *graphstore.Store, *fakeBackend, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := graphstore.New(filepath.Join(dir, "graph.json"))
	require.NoError(t, err)

	fb := newFakeBackend()
	mux := ctxmux.New(dir, ".git")
	g := New(store, fb, mux, defaultContext, synthesizeRootOrigin)
	return g, store, fb, dir
}

func TestAddNodeRootSynthesizesOrigin(t *testing.T) {
	g, store, _, _ := newTestGraph(t, "origin", true)

	id, err := g.AddNode(context.Background(), nil, types.Author{Name: "a", Email: "a@x.com"}, "root", nil)
	require.NoError(t, err)

	node, err := store.LoadNode(id)
	require.NoError(t, err)
	require.Equal(t, 1, node.Remotes.Len())
	ref, ok := node.Remotes.Get("origin")
	require.True(t, ok)
	assert.Empty(t, ref.URL)
}

func TestAddNodeRootWithoutSynthesisHasNoRemotes(t *testing.T) {
	g, store, _, _ := newTestGraph(t, "origin", false)

	id, err := g.AddNode(context.Background(), nil, types.Author{Name: "a", Email: "a@x.com"}, "root", nil)
	require.NoError(t, err)

	node, err := store.LoadNode(id)
	require.NoError(t, err)
	assert.Equal(t, 0, node.Remotes.Len())
}

func TestAddNodeInheritsUnionOfParentRemotes(t *testing.T) {
	g, store, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	p1, err := g.AddNode(ctx, nil, author, "p1", nil)
	require.NoError(t, err)
	require.NoError(t, g.AddRemotePermission(p1, types.RemoteRef{Name: "fork", URL: "https://fork"}))

	p2, err := g.AddNode(ctx, nil, author, "p2", []types.RemoteRef{})
	require.NoError(t, err)
	require.NoError(t, g.AddRemotePermission(p2, types.RemoteRef{Name: "staging", URL: "https://staging"}))

	child, err := g.AddNode(ctx, []types.NodeId{p1, p2}, author, "merge", nil)
	require.NoError(t, err)

	node, err := store.LoadNode(child)
	require.NoError(t, err)
	assert.True(t, node.Remotes.Contains(types.RemoteRef{Name: "fork", URL: "https://fork"}))
	assert.True(t, node.Remotes.Contains(types.RemoteRef{Name: "staging", URL: "https://staging"}))
}

func TestAddNodeConflictingParentRemotesIsRemoteConflict(t *testing.T) {
	g, _, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	p1, err := g.AddNode(ctx, nil, author, "p1", []types.RemoteRef{})
	require.NoError(t, err)
	require.NoError(t, g.AddRemotePermission(p1, types.RemoteRef{Name: "origin", URL: "https://a"}))

	p2, err := g.AddNode(ctx, nil, author, "p2", []types.RemoteRef{})
	require.NoError(t, err)
	require.NoError(t, g.AddRemotePermission(p2, types.RemoteRef{Name: "origin", URL: "https://b"}))

	_, err = g.AddNode(ctx, []types.NodeId{p1, p2}, author, "merge", nil)
	require.Error(t, err)
}

func TestAddNodeRequestedRemoteNotInAllowedSetIsValidationError(t *testing.T) {
	g, _, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	p1, err := g.AddNode(ctx, nil, author, "p1", []types.RemoteRef{})
	require.NoError(t, err)

	_, err = g.AddNode(ctx, []types.NodeId{p1}, author, "child", []types.RemoteRef{{Name: "not-allowed"}})
	require.Error(t, err)
}

func TestAddNodeUpdatesParentChildren(t *testing.T) {
	g, store, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	p1, err := g.AddNode(ctx, nil, author, "p1", nil)
	require.NoError(t, err)
	child, err := g.AddNode(ctx, []types.NodeId{p1}, author, "child", nil)
	require.NoError(t, err)

	parent, err := store.LoadNode(p1)
	require.NoError(t, err)
	assert.True(t, parent.Children.Contains(child))
}

func TestAddRemoveRemotePermission(t *testing.T) {
	g, store, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	id, err := g.AddNode(ctx, nil, author, "root", []types.RemoteRef{})
	require.NoError(t, err)

	require.NoError(t, g.AddRemotePermission(id, types.RemoteRef{Name: "fork", URL: "https://fork"}))
	node, err := store.LoadNode(id)
	require.NoError(t, err)
	assert.True(t, node.Remotes.Contains(types.RemoteRef{Name: "fork", URL: "https://fork"}))

	require.NoError(t, g.RemoveRemotePermission(id, "fork"))
	node, err = store.LoadNode(id)
	require.NoError(t, err)
	assert.False(t, node.Remotes.Contains(types.RemoteRef{Name: "fork", URL: "https://fork"}))
}

func TestAddRemoveTag(t *testing.T) {
	g, store, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	id, err := g.AddNode(ctx, nil, author, "root", nil)
	require.NoError(t, err)

	require.NoError(t, g.AddTag(id, "v1", map[string]string{"release": "true"}))
	node, err := store.LoadNode(id)
	require.NoError(t, err)
	_, ok := node.Tags["v1"]
	assert.True(t, ok)

	require.NoError(t, g.RemoveTag(id, "v1"))
	node, err = store.LoadNode(id)
	require.NoError(t, err)
	_, ok = node.Tags["v1"]
	assert.False(t, ok)
}

func TestCheckoutSwitchesContextAndRestoresTree(t *testing.T) {
	requireGit(t)
	g, _, fb, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	id, err := g.AddNode(ctx, nil, author, "root", nil)
	require.NoError(t, err)

	require.NoError(t, g.Checkout(ctx, id))
	require.Len(t, fb.checkoutCalls, 1)
	assert.Equal(t, "tree-1", fb.checkoutCalls[0])
}

func TestCheckoutFallsBackToDefaultContextWhenNoRemotes(t *testing.T) {
	requireGit(t)
	g, _, _, _ := newTestGraph(t, "scratch", false)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	id, err := g.AddNode(ctx, nil, author, "root", []types.RemoteRef{})
	require.NoError(t, err)

	require.NoError(t, g.Checkout(ctx, id))

	active, err := g.ctxmux.Active()
	require.NoError(t, err)
	assert.Equal(t, "scratch", active)
}

func TestListRootsDelegatesToStorage(t *testing.T) {
	g, _, _, _ := newTestGraph(t, "origin", true)
	ctx := context.Background()
	author := types.Author{Name: "a", Email: "a@x.com"}

	_, err := g.AddNode(ctx, nil, author, "root", nil)
	require.NoError(t, err)

	roots, err := g.ListRoots()
	require.NoError(t, err)
	assert.Len(t, roots, 1)
}
