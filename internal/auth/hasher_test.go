// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/pkg/errutil"
)

func newTestBcrypt(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewPasswordHasher(t *testing.T) {
	t.Run("empty algorithm selects bcrypt", func(t *testing.T) {
		h, err := auth.NewPasswordHasher("", 0)
		require.NoError(t, err)
		assert.IsType(t, &auth.BcryptHasher{}, h)
	})

	t.Run("argon2id", func(t *testing.T) {
		h, err := auth.NewPasswordHasher(auth.AlgorithmArgon2id, 0)
		require.NoError(t, err)
		assert.IsType(t, &auth.Argon2idHasher{}, h)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := auth.NewPasswordHasher("md5", 0)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_HASHER")
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		_, err := auth.NewPasswordHasher(auth.AlgorithmBcrypt, 99)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_COST")
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := newTestBcrypt(t)

	t.Run("produces bcrypt hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2a$"))
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password does not error", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("needs upgrade when cost differs", func(t *testing.T) {
		stronger, err := auth.NewBcryptHasher(bcrypt.MinCost + 1)
		require.NoError(t, err)

		hash, err := hasher.Hash("password")
		require.NoError(t, err)

		assert.False(t, hasher.NeedsUpgrade(hash))
		assert.True(t, stronger.NeedsUpgrade(hash))
	})

	t.Run("needs upgrade for argon2id hash", func(t *testing.T) {
		hash, err := auth.NewArgon2idHasher().Hash("password")
		require.NoError(t, err)
		assert.True(t, hasher.NeedsUpgrade(hash))
	})
}

func TestArgon2idHasher(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("bcrypt hash needs upgrade", func(t *testing.T) {
		assert.True(t, hasher.NeedsUpgrade("$2a$10$N9qo8uLOickgx2ZMRZoMyeIvNq.Uf3hE9tQALNP1Qn9sNp5x5x5x5"))
	})
}

func TestVerify_AcceptsEitherAlgorithm(t *testing.T) {
	bcryptHasher := newTestBcrypt(t)
	argonHasher := auth.NewArgon2idHasher()

	bcryptHash, err := bcryptHasher.Hash("password")
	require.NoError(t, err)
	argonHash, err := argonHasher.Hash("password")
	require.NoError(t, err)

	ok, err := argonHasher.Verify("password", bcryptHash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bcryptHasher.Verify("password", argonHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_InvalidHashes(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	tests := []struct {
		name     string
		hash     string
		contains string
	}{
		{"unknown format", "not-a-valid-hash", "unsupported hash format"},
		{"wrong argon variant", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA", "unsupported hash format"},
		{"invalid version", "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA", ""},
		{"invalid parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA", ""},
		{"invalid salt base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA", ""},
		{"invalid key base64", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!", ""},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA", "threads value"},
		{"truncated bcrypt", "$2a$10$short", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}
