// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/pkg/errutil"
)

var pruneNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pruneDeps(t *testing.T, mock pgxmock.PgxPoolIface) *Deps {
	t.Helper()
	isolateConfig(t)
	return &Deps{
		Getenv: envMap(map[string]string{
			"DATABASE_URL":            "postgres://authflow@db/authflow",
			"AUTHFLOW_SESSION_SECRET": testSecret,
		}),
		PoolFactory: func(context.Context, string) (DatabasePool, error) {
			return mock, nil
		},
		Clock: auth.NewFixedClock(pruneNow),
	}
}

func TestPruneTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(pruneNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	out, _, err := execute(t, pruneDeps(t, mock), "prune-tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned expired tokens from 4 account(s)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneTokens_StoreFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(pruneNow).
		WillReturnError(errors.New("connection reset"))

	_, _, err = execute(t, pruneDeps(t, mock), "prune-tokens")
	errutil.AssertErrorCode(t, err, auth.CodeStoreFailed)
}

func TestPruneTokens_InvalidConfig(t *testing.T) {
	isolateConfig(t)
	called := false
	deps := &Deps{
		Getenv: envMap(nil),
		PoolFactory: func(context.Context, string) (DatabasePool, error) {
			called = true
			return nil, errors.New("unreachable")
		},
	}

	_, _, err := execute(t, deps, "prune-tokens")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.False(t, called)
}
