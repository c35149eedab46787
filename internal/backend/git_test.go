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

package backend

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gpp/internal/types"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newTestBackend(t *testing.T) *GitBackend {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	b := NewGitBackend(dir)
	require.NoError(t, b.Bootstrap(context.Background()))
	return b
}

func TestGitBackendIsRepoEmptyBeforeFirstCommit(t *testing.T) {
	b := newTestBackend(t)
	empty, err := b.IsRepoEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestGitBackendCreateTreeAndCommit(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(b.workdir, "a.txt"), []byte("hello"), 0o600))

	tree, err := b.CreateTree(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tree)

	author := types.Author{Name: "Test", Email: "test@example.com"}
	commitID, err := b.CreateCommit(ctx, tree, nil, author, "initial commit")
	require.NoError(t, err)
	assert.NotEmpty(t, commitID)

	empty, err := b.IsRepoEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	head, err := b.ReadRef(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, commitID, head)
}

func TestGitBackendReadRefMissingYieldsNoError(t *testing.T) {
	b := newTestBackend(t)
	id, err := b.ReadRef(context.Background(), "refs/heads/does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestGitBackendCheckoutNodeRestoresTree(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	filePath := filepath.Join(b.workdir, "a.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("first"), 0o600))
	tree1, err := b.CreateTree(ctx)
	require.NoError(t, err)
	author := types.Author{Name: "Test", Email: "test@example.com"}
	_, err = b.CreateCommit(ctx, tree1, nil, author, "first")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filePath, []byte("second"), 0o600))
	tree2, err := b.CreateTree(ctx)
	require.NoError(t, err)
	commit2, err := b.CreateCommit(ctx, tree2, []types.NodeId{}, author, "second")
	require.NoError(t, err)
	assert.NotEmpty(t, commit2)

	require.NoError(t, b.CheckoutNode(ctx, tree1))
	data, err := os.ReadFile(filePath) //nolint:gosec // test fixture path under t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}
