// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session configuration.
const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	MinSecretLength   = 32
	sessionIssuer     = "authflow"
)

// Session is a signed, time-bound assertion of a user's identity.
type Session struct {
	ID        string // unique per issuance, used for revocation
	UserID    ulid.ULID
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTLAt returns the remaining lifetime of the session at now, floored at zero.
func (s *Session) TTLAt(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// SessionIssuer signs and decodes session tokens.
type SessionIssuer interface {
	// Issue signs a new session for userID valid from now.
	Issue(userID ulid.ULID, now time.Time) (*Session, error)

	// Resolve verifies token at now and returns the session it encodes.
	Resolve(token string, now time.Time) (*Session, error)
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// JWTIssuer implements SessionIssuer with HMAC-SHA256 signed JWTs.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTIssuer creates a JWTIssuer. A zero ttl selects DefaultSessionTTL.
func NewJWTIssuer(secret []byte, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, oops.Code("SESSION_SECRET_TOO_SHORT").
			With("min", MinSecretLength).
			Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	if ttl < 0 {
		return nil, oops.Code("SESSION_INVALID_TTL").With("ttl", ttl).Errorf("session ttl must be positive")
	}
	return &JWTIssuer{secret: secret, ttl: ttl}, nil
}

// TTL returns the lifetime given to new sessions.
func (j *JWTIssuer) TTL() time.Duration {
	return j.ttl
}

// Issue signs a new session for userID.
func (j *JWTIssuer) Issue(userID ulid.ULID, now time.Time) (*Session, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	id := ulid.Make().String()
	issuedAt := now.Truncate(time.Second)
	expiresAt := issuedAt.Add(j.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    sessionIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return nil, oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}

	return &Session{
		ID:        id,
		UserID:    userID,
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve verifies the signature, issuer and expiry of token at now.
func (j *JWTIssuer) Resolve(token string, now time.Time) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID").Wrap(err)
	}

	userID, err := ulid.ParseStrict(claims.Subject)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID").With("subject", claims.Subject).Wrap(err)
	}
	if claims.ID == "" {
		return nil, oops.Code("SESSION_INVALID").Errorf("session token has no id")
	}

	session := &Session{
		ID:        claims.ID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}
