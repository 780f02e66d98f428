// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package xdg resolves the XDG Base Directory locations authflow reads from.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "authflow"

// ConfigDir returns $XDG_CONFIG_HOME/authflow, falling back to
// ~/.config/authflow.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path. The file need not exist.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
