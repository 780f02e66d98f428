// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/samber/oops"
)

// Token configuration.
const (
	VerificationCodeDigits = 6
	VerificationTokenTTL   = 24 * time.Hour
	ResetTokenBytes        = 20 // 20 bytes = 40 hex chars
	ResetTokenTTL          = time.Hour
)

var verificationCodeSpace = big.NewInt(1_000_000)

// TokenGenerator produces the random secrets handed to users.
type TokenGenerator interface {
	// VerificationCode returns a fixed-width numeric code a person can type.
	VerificationCode() (string, error)

	// OpaqueToken returns a URL-safe random token.
	OpaqueToken() (string, error)
}

// RandomTokens implements TokenGenerator with crypto/rand.
type RandomTokens struct{}

// VerificationCode returns a uniformly random 6-digit code, zero padded.
func (RandomTokens) VerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, verificationCodeSpace)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("operation", "verification code").
			Wrap(err)
	}
	return fmt.Sprintf("%0*d", VerificationCodeDigits, n.Int64()), nil
}

// OpaqueToken returns ResetTokenBytes random bytes, hex encoded.
func (RandomTokens) OpaqueToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", ResetTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken computes the SHA256 hash of a token. Only the hash is stored;
// the plaintext is given to the user.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
