// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/authflow/authflow/internal/config"
	"github.com/authflow/authflow/internal/logging"
)

func newPruneTokensCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-tokens",
		Short: "Clear expired verification and reset tokens",
		Long: `Clear every verification and reset token whose expiry has passed.
Each token and its expiry are always cleared together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPruneTokens(cmd.Context(), cmd, deps)
		},
	}
}

func runPruneTokens(ctx context.Context, cmd *cobra.Command, deps *Deps) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, deps, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Pruning sends no notifications and needs no redis.
	cfg.Notify.Driver = config.NotifyDriverLog
	parts, err := buildComponents(cfg, pool, nil, deps.Clock, logger)
	if err != nil {
		return err
	}

	n, err := parts.service.PruneExpiredTokens(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Pruned expired tokens from %d account(s)\n", n)
	return nil
}
