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

// Package config loads and saves GPP's repository configuration,
// .gpp/config.yaml, in the same shape the teacher uses for
// .cie/project.yaml: a versioned YAML document with environment
// variable overrides and directory discovery by walking up from cwd.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/gpp/internal/errs"
)

const (
	// RepoDirName is the name of GPP's per-repository metadata directory.
	RepoDirName = ".gpp"
	// fileName is the config file within RepoDirName.
	fileName = "config.yaml"
	// configVersion is bumped when the on-disk schema changes incompatibly.
	configVersion = "1"
)

// Config is the content of .gpp/config.yaml.
type Config struct {
	Version string `yaml:"version"`

	// DefaultBranch is the mainline ref name PushManager targets
	// (refs/heads/<DefaultBranch>) when the caller doesn't specify one.
	// Compiled-in fallback is "main".
	DefaultBranch string `yaml:"default_branch"`

	// DefaultContext is the context name Checkout falls back to when a
	// node carries no remote permissions at all.
	DefaultContext string `yaml:"default_context"`

	// SynthesizeRootOrigin controls whether AddNode synthesizes a
	// sentinel "origin" RemoteRef (empty url) for root nodes created
	// without an explicit requestedRemotes list.
	SynthesizeRootOrigin bool `yaml:"synthesize_root_origin"`

	// ObjectStoreDir names the active-store link inside the working
	// directory (conventionally ".git").
	ObjectStoreDir string `yaml:"object_store_dir"`
}

// Default returns GPP's compiled-in defaults.
func Default() *Config {
	return &Config{
		Version:              configVersion,
		DefaultBranch:        "main",
		DefaultContext:       "origin",
		SynthesizeRootOrigin: true,
		ObjectStoreDir:       ".git",
	}
}

// Path returns <dir>/.gpp/config.yaml.
func Path(dir string) string {
	return filepath.Join(dir, RepoDirName, fileName)
}

// Dir returns <dir>/.gpp.
func Dir(dir string) string {
	return filepath.Join(dir, RepoDirName)
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled repository metadata
	if err != nil {
		return nil, errs.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed: the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'gpp init --force' to recreate it", path),
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, errs.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version %q is not supported (expected %q)", cfg.Version, configVersion),
			"Run 'gpp init --force' to regenerate the configuration file",
			nil,
		)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating the parent directory if
// needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errs.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug; please report it",
			err,
		)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errs.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", filepath.Dir(path)),
			"Check directory permissions",
			err,
		)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errs.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", path),
			"Check file permissions and available disk space",
			err,
		)
	}

	return nil
}

// Discover walks up from startDir looking for a .gpp/config.yaml,
// mirroring the teacher's findConfigFile.
func Discover(startDir string) (string, error) {
	if explicit := os.Getenv("GPP_CONFIG_PATH"); explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", errs.NewConfigError(
			"Configuration file not found",
			fmt.Sprintf("GPP_CONFIG_PATH is set to %q but the file does not exist", explicit),
			"Fix the GPP_CONFIG_PATH environment variable or run 'gpp init' to create a config",
			nil,
		)
	}

	dir := startDir
	for {
		candidate := Path(dir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errs.NewConfigError(
		"Configuration not found",
		"No .gpp/config.yaml file found in the current directory or any parent",
		"Run 'gpp init' to create a new repository",
		nil,
	)
}

// applyEnvOverrides lets GPP_DEFAULT_BRANCH/GPP_DEFAULT_CONTEXT override
// the file-based configuration, mirroring the teacher's env-override
// convention.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GPP_DEFAULT_BRANCH"); v != "" {
		c.DefaultBranch = v
	}
	if v := os.Getenv("GPP_DEFAULT_CONTEXT"); v != "" {
		c.DefaultContext = v
	}
}
