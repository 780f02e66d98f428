// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package revocation keeps the list of sessions ended by logout before their
// natural expiry.
package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/authflow/authflow/internal/auth"
)

// CodeUnavailable marks errors talking to redis.
const CodeUnavailable = "REVOCATION_UNAVAILABLE"

// Store records revoked session IDs as redis keys that expire together with
// the session they name.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ auth.SessionRevoker = (*Store)(nil)

// New creates a Store whose keys start with prefix.
func New(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Revoke marks sessionID revoked for ttl. A non-positive ttl is a no-op
// because the session has already expired.
func (s *Store) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" {
		return oops.Code("REVOCATION_INVALID").Errorf("session id cannot be empty")
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(sessionID), "1", ttl).Err(); err != nil {
		return oops.Code(CodeUnavailable).With("session_id", sessionID).Wrap(err)
	}
	return nil
}

// IsRevoked reports whether sessionID is on the list.
func (s *Store) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, oops.Code(CodeUnavailable).With("session_id", sessionID).Wrap(err)
	}
	return n > 0, nil
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":revoked:" + sessionID
}
