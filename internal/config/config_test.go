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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)

	cfg := Default()
	cfg.DefaultBranch = "trunk"

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "trunk", loaded.DefaultBranch)
	assert.True(t, loaded.SynthesizeRootOrigin)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, Save(&Config{Version: "999"}, path))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDiscoverWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(Default(), Path(root)))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	found, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, Path(root), found)
}

func TestDiscoverReturnsErrorWhenMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir)
	assert.Error(t, err)
}
