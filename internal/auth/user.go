// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxNameLength bounds the display name.
const MaxNameLength = 100

// User is the credential record kept for every registered email address.
//
// The token fields hold SHA-256 digests of the codes handed to the user, never
// the codes themselves. Each digest is paired with its expiry and the two are
// always set and cleared together.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	Name         string
	IsVerified   bool
	LastLogin    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	VerifiedAt   *time.Time

	VerificationTokenHash      *string
	VerificationTokenExpiresAt *time.Time
	ResetTokenHash             *string
	ResetTokenExpiresAt        *time.Time
}

// NewUser creates an unverified User. The email is normalized before it is
// stored.
func NewUser(email, name, passwordHash string, now time.Time) (*User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, oops.Code(CodeValidation).Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return nil, oops.Code(CodeValidation).
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeValidation).Errorf("password hash cannot be empty")
	}

	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail trims and lower-cases an address and checks that it parses
// as a bare RFC 5322 address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", oops.Code(CodeValidation).Errorf("email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", oops.Code(CodeValidation).With("email", email).Errorf("invalid email address")
	}
	return email, nil
}

// SetVerificationToken records a pending verification.
func (u *User) SetVerificationToken(tokenHash string, expiresAt time.Time) {
	u.VerificationTokenHash = &tokenHash
	u.VerificationTokenExpiresAt = &expiresAt
}

// ClearVerificationToken drops the pending verification.
func (u *User) ClearVerificationToken() {
	u.VerificationTokenHash = nil
	u.VerificationTokenExpiresAt = nil
}

// SetResetToken records a pending password reset.
func (u *User) SetResetToken(tokenHash string, expiresAt time.Time) {
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
}

// ClearResetToken drops the pending password reset.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
}

// VerificationPendingAt reports whether an unexpired verification token is
// held at now. A token whose expiry equals now is already expired.
func (u *User) VerificationPendingAt(now time.Time) bool {
	return u.VerificationTokenHash != nil &&
		u.VerificationTokenExpiresAt != nil &&
		u.VerificationTokenExpiresAt.After(now)
}

// ResetPendingAt reports whether an unexpired reset token is held at now.
func (u *User) ResetPendingAt(now time.Time) bool {
	return u.ResetTokenHash != nil &&
		u.ResetTokenExpiresAt != nil &&
		u.ResetTokenExpiresAt.After(now)
}

// MarkVerified flips the account to verified. It returns false if the
// account was already verified.
//
// CreatedAt is overwritten with the verification time; the registration
// timestamp is not kept separately, VerifiedAt records the same instant.
func (u *User) MarkVerified(now time.Time) bool {
	if u.IsVerified {
		return false
	}
	u.IsVerified = true
	u.CreatedAt = now
	u.VerifiedAt = &now
	u.UpdatedAt = now
	return true
}

// Profile is the public view of a User. It never carries the password hash
// or token state.
type Profile struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	IsVerified bool       `json:"isVerified"`
	LastLogin  time.Time  `json:"lastLogin"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		VerifiedAt: u.VerifiedAt,
	}
}

// UserRepository manages credential record persistence.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrDuplicateEmail
	// if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByVerificationToken retrieves the single user holding the given
	// verification token digest with an expiry after now. Returns ErrNotFound
	// when no user or more than one user matches.
	GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// GetByResetToken retrieves the single user holding the given reset token
	// digest with an expiry after now. Returns ErrNotFound when no user or
	// more than one user matches.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)

	// Update writes every mutable field of an existing user.
	Update(ctx context.Context, user *User) error

	// ClearExpiredTokens clears token pairs whose expiry is at or before now
	// and returns the number of users touched.
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
