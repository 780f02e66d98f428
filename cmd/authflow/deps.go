// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/internal/observability"
	"github.com/authflow/authflow/internal/store"
)

// Deps contains injectable dependencies for the CLI commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens the database pool.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string) (DatabasePool, error)

	// RedisFactory opens the redis client.
	// Default: store.ConnectRedis
	RedisFactory func(ctx context.Context, url string) (redis.UniversalClient, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// HTTPClient is used by the status command.
	HTTPClient *http.Client

	// Getenv reads environment overrides. Default: os.Getenv
	Getenv func(string) string

	// Clock drives token expiry. Default: auth.SystemClock
	Clock auth.Clock
}

// DatabasePool is the pool used by the commands. *pgxpool.Pool satisfies it.
type DatabasePool interface {
	store.Pool
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Status() (*store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, url string) (DatabasePool, error) {
			return store.Connect(ctx, url)
		}
	}
	if out.RedisFactory == nil {
		out.RedisFactory = func(ctx context.Context, url string) (redis.UniversalClient, error) {
			return store.ConnectRedis(ctx, url)
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, checker)
		}
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	if out.Clock == nil {
		out.Clock = auth.SystemClock{}
	}
	return &out
}
