// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "status", "prune-tokens", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "authflow dev")
	assert.Contains(t, out, "commit: unknown")
}

func TestServeCmd_Flags(t *testing.T) {
	out, _, err := execute(t, nil, "serve", "--help")
	require.NoError(t, err)
	requireContains(t, out, "--addr", "--metrics-addr", "--log-format", "--log-level", "--production", "--config")
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, nil, "bogus")
	assert.Error(t, err)
}
