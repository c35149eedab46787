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

package dispatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gpp/internal/ctxmux"
	"github.com/kraklabs/gpp/internal/graph"
	"github.com/kraklabs/gpp/internal/graphstore"
	"github.com/kraklabs/gpp/internal/push"
	"github.com/kraklabs/gpp/internal/types"
)

type fakeBackend struct {
	counter int
}

func (f *fakeBackend) CreateTree(ctx context.Context) (string, error) {
	f.counter++
	return fmt.Sprintf("tree-%d", f.counter), nil
}
func (f *fakeBackend) CreateCommit(ctx context.Context, treeID string, parents []types.NodeId, author types.Author, message string) (types.NodeId, error) {
	return types.NodeId(fmt.Sprintf("commit-%d", f.counter)), nil
}
func (f *fakeBackend) ReadRef(ctx context.Context, ref string) (types.NodeId, error) { return "", nil }
func (f *fakeBackend) PushUpdateRef(ctx context.Context, remoteURL string, localTip types.NodeId, targetRef string) error {
	return nil
}
func (f *fakeBackend) CheckoutNode(ctx context.Context, treeID string) error { return nil }
func (f *fakeBackend) IsRepoEmpty(ctx context.Context) (bool, error)        { return f.counter == 0, nil }
func (f *fakeBackend) Bootstrap(ctx context.Context) error                  { return nil }

func newTestDispatcher(t *testing.T) (*Dispatcher, *graph.VersionGraph) {
	t.Helper()
	dir := t.TempDir()
	store, err := graphstore.New(filepath.Join(dir, "graph.json"))
	require.NoError(t, err)

	b := &fakeBackend{}
	mux := ctxmux.New(dir, ".git")
	g := graph.New(store, b, mux, "origin", true)
	pushMgr := push.New(g, b, "main")
	d := New(g, pushMgr, nil)
	return d, g
}

func TestDispatchAddCreatesNode(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res, err := d.Dispatch(context.Background(), Command{
		Kind:    CmdAdd,
		Message: "first",
		Author:  types.Author{Name: "a", Email: "a@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res.Kind)
	assert.Contains(t, res.Message, "Node created")
}

func TestDispatchLogOnEmptyHistory(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res, err := d.Dispatch(context.Background(), Command{Kind: CmdLog})
	require.NoError(t, err)
	assert.Equal(t, ResultOutput, res.Kind)
	assert.Equal(t, "History is empty.", res.Message)
}

func TestDispatchLogListsCommits(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()
	addRes, err := d.Dispatch(ctx, Command{Kind: CmdAdd, Message: "root", Author: types.Author{Name: "a", Email: "a@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, addRes.Kind)

	logRes, err := d.Dispatch(ctx, Command{Kind: CmdLog})
	require.NoError(t, err)
	assert.Contains(t, logRes.Message, "root")
}

func TestDispatchChangeRemoteAddAndRemove(t *testing.T) {
	d, g := newTestDispatcher(t)
	ctx := context.Background()
	id, err := g.AddNode(ctx, nil, types.Author{Name: "a", Email: "a@x.com"}, "root", []types.RemoteRef{})
	require.NoError(t, err)

	res, err := d.Dispatch(ctx, Command{Kind: CmdChangeRemote, Node: id, RemoteName: "fork", RemoteURL: "https://fork"})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Added permission")

	res, err = d.Dispatch(ctx, Command{Kind: CmdChangeRemote, Node: id, RemoteName: "fork", Remove: true})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Removed permission")
}

func TestDispatchTagAddAndRemove(t *testing.T) {
	d, g := newTestDispatcher(t)
	ctx := context.Background()
	id, err := g.AddNode(ctx, nil, types.Author{Name: "a", Email: "a@x.com"}, "root", nil)
	require.NoError(t, err)

	res, err := d.Dispatch(ctx, Command{Kind: CmdTagAdd, Node: id, TagName: "v1"})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Tagged")

	res, err = d.Dispatch(ctx, Command{Kind: CmdTagRemove, Node: id, TagName: "v1"})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Removed tag")
}

func TestDispatchCustomUnknownCommandErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), Command{Kind: CmdCustom, CustomName: "does-not-exist"})
	assert.Error(t, err)
}

type recordingHandler struct{ called bool }

func (h *recordingHandler) Execute(ctx context.Context, args []string, g *graph.VersionGraph) (CmdResult, error) {
	h.called = true
	return CmdResult{Kind: ResultSuccess, Message: "handled"}, nil
}

func TestDispatchCustomRoutesToRegisteredHandler(t *testing.T) {
	dir := t.TempDir()
	store, err := graphstore.New(filepath.Join(dir, "graph.json"))
	require.NoError(t, err)
	b := &fakeBackend{}
	mux := ctxmux.New(dir, ".git")
	g := graph.New(store, b, mux, "origin", true)
	pushMgr := push.New(g, b, "main")

	registry := NewPluginRegistry()
	h := &recordingHandler{}
	registry.Register("hello", h)
	d := New(g, pushMgr, registry)

	res, err := d.Dispatch(context.Background(), Command{Kind: CmdCustom, CustomName: "hello"})
	require.NoError(t, err)
	assert.True(t, h.called)
	assert.Equal(t, "handled", res.Message)
}
