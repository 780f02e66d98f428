// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/authflow/authflow/internal/config"
)

// NewRootCmd creates the root command for the authflow CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "authflow",
		Short: "authflow - email and password authentication service",
		Long: `authflow serves signup, email verification, login, logout and
password reset over HTTP, backed by PostgreSQL and optionally redis.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: $XDG_CONFIG_HOME/authflow/config.yaml)")

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newStatusCmd(deps))
	cmd.AddCommand(newPruneTokensCmd(deps))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the layered configuration for cmd. flagKeys maps the
// command's flag names to config keys.
func loadConfig(cmd *cobra.Command, deps *Deps, flagKeys map[string]string) (*config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		file = ""
	}
	return config.Load(config.LoadOptions{
		File:     file,
		Flags:    cmd.Flags(),
		FlagKeys: flagKeys,
		Getenv:   deps.Getenv,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("authflow %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
