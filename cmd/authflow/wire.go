// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/authflow/authflow/internal/auth"
	authpg "github.com/authflow/authflow/internal/auth/postgres"
	"github.com/authflow/authflow/internal/config"
	"github.com/authflow/authflow/internal/notify"
	"github.com/authflow/authflow/internal/revocation"
	"github.com/authflow/authflow/internal/store"
)

// components is the assembled auth stack shared by serve and prune-tokens.
type components struct {
	service *auth.Service
	issuer  *auth.JWTIssuer
	revoker auth.SessionRevoker // nil without redis
}

// buildComponents wires the auth service from cfg. rdb may be nil when no
// redis is configured.
func buildComponents(cfg *config.Config, pool store.Pool, rdb redis.UniversalClient, clock auth.Clock, logger *slog.Logger) (*components, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Password.Algorithm, cfg.Password.BcryptCost)
	if err != nil {
		return nil, oops.With("operation", "create password hasher").Wrap(err)
	}

	issuer, err := auth.NewJWTIssuer([]byte(cfg.Session.Secret), cfg.Session.TTL)
	if err != nil {
		return nil, oops.With("operation", "create session issuer").Wrap(err)
	}

	var notifier auth.Notifier
	switch cfg.Notify.Driver {
	case config.NotifyDriverRedis:
		if rdb == nil {
			return nil, oops.Code(config.CodeInvalid).Errorf("notify driver redis requires a redis connection")
		}
		notifier, err = notify.NewRedisStream(rdb, cfg.Notify.Stream)
		if err != nil {
			return nil, err
		}
	default:
		notifier = notify.NewLogNotifier(logger)
	}

	opts := []auth.ServiceOption{
		auth.WithClock(clock),
		auth.WithLogger(logger),
		auth.WithResetURLBase(cfg.Client.URL),
		auth.WithTokenTTLs(cfg.Tokens.VerificationTTL, cfg.Tokens.ResetTTL),
	}

	c := &components{issuer: issuer}
	if rdb != nil {
		c.revoker = revocation.New(rdb, cfg.Redis.KeyPrefix)
		opts = append(opts, auth.WithRevoker(c.revoker))
	}

	c.service, err = auth.NewService(authpg.NewUserRepository(pool), hasher, issuer, notifier, opts...)
	if err != nil {
		return nil, oops.With("operation", "create auth service").Wrap(err)
	}
	return c, nil
}
