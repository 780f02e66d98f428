// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth_test

import (
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow/internal/auth"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestRandomTokens_VerificationCode(t *testing.T) {
	gen := auth.RandomTokens{}
	seen := make(map[string]struct{})
	for range 200 {
		code, err := gen.VerificationCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 150, "codes should rarely repeat")
}

func TestRandomTokens_OpaqueToken(t *testing.T) {
	gen := auth.RandomTokens{}

	token1, err := gen.OpaqueToken()
	require.NoError(t, err)
	token2, err := gen.OpaqueToken()
	require.NoError(t, err)

	assert.Len(t, token1, 40)
	assert.NotEqual(t, token1, token2)
	_, err = hex.DecodeString(token1)
	assert.NoError(t, err)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, auth.HashToken("abc"), auth.HashToken("abc"))
	assert.NotEqual(t, auth.HashToken("abc"), auth.HashToken("abd"))
	assert.Len(t, auth.HashToken("anything"), 64)
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		auth.HashToken("abc"))
}
