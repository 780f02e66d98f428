// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow/internal/revocation"
	"github.com/authflow/authflow/pkg/errutil"
)

func newStore(t *testing.T) (*miniredis.Miniredis, *revocation.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, revocation.New(client, "authflow")
}

func TestStore_RevokeThenIsRevoked(t *testing.T) {
	ctx := context.Background()
	mr, store := newStore(t)

	revoked, err := store.IsRevoked(ctx, "01HSESSION")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "01HSESSION", time.Hour))

	revoked, err = store.IsRevoked(ctx, "01HSESSION")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Hour, mr.TTL("authflow:revoked:01HSESSION"))

	other, err := store.IsRevoked(ctx, "01HOTHER")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestStore_EntryExpiresWithSession(t *testing.T) {
	ctx := context.Background()
	mr, store := newStore(t)

	require.NoError(t, store.Revoke(ctx, "sid", time.Minute))
	mr.FastForward(time.Minute)

	revoked, err := store.IsRevoked(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestStore_NonPositiveTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	mr, store := newStore(t)

	require.NoError(t, store.Revoke(ctx, "sid", 0))
	require.NoError(t, store.Revoke(ctx, "sid", -time.Second))
	assert.False(t, mr.Exists("authflow:revoked:sid"))
}

func TestStore_EmptySessionID(t *testing.T) {
	_, store := newStore(t)
	err := store.Revoke(context.Background(), "", time.Hour)
	errutil.AssertErrorCode(t, err, "REVOCATION_INVALID")
}

func TestStore_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := revocation.New(client, "authflow")
	mr.Close()

	_, err = store.IsRevoked(context.Background(), "sid")
	errutil.AssertErrorCode(t, err, revocation.CodeUnavailable)

	err = store.Revoke(context.Background(), "sid", time.Hour)
	errutil.AssertErrorCode(t, err, revocation.CodeUnavailable)
}
