// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package postgres implements auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/internal/store"
)

const emailUniqueConstraint = "users_email_key"

const userColumns = `
	id, email, password_hash, name, is_verified, last_login,
	created_at, updated_at, verified_at,
	verification_token_hash, verification_token_expires_at,
	reset_token_hash, reset_token_expires_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool store.Pool
}

var _ auth.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.Name,
		user.IsVerified,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
		user.VerifiedAt,
		user.VerificationTokenHash,
		user.VerificationTokenExpiresAt,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
	)
	if isUniqueViolation(err, emailUniqueConstraint) {
		return oops.With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.With("operation", "insert user").With("user_id", user.ID.String()).Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by id").With("user_id", id.String()).Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get user by email").With("email", email).Wrap(err)
	}
	return user, nil
}

// GetByVerificationToken retrieves the single user holding tokenHash as an
// unexpired verification token.
func (r *UserRepository) GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	return r.getUniqueByToken(ctx, "get user by verification token",
		`SELECT `+userColumns+` FROM users
		WHERE verification_token_hash = $1 AND verification_token_expires_at > $2
		LIMIT 2`, tokenHash, now)
}

// GetByResetToken retrieves the single user holding tokenHash as an unexpired
// reset token.
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	return r.getUniqueByToken(ctx, "get user by reset token",
		`SELECT `+userColumns+` FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
		LIMIT 2`, tokenHash, now)
}

// getUniqueByToken runs a token lookup and requires exactly one match. Six
// digit verification codes can collide across live accounts; an ambiguous
// code matches nobody.
func (r *UserRepository) getUniqueByToken(ctx context.Context, operation, query, tokenHash string, now time.Time) (*auth.User, error) {
	rows, err := r.pool.Query(ctx, query, tokenHash, now)
	if err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.With("operation", operation).Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", operation).Wrap(err)
	}

	if len(users) != 1 {
		return nil, oops.With("matches", len(users)).Wrap(auth.ErrNotFound)
	}
	return users[0], nil
}

// Update writes every mutable field of user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			name = $4,
			is_verified = $5,
			last_login = $6,
			created_at = $7,
			updated_at = $8,
			verified_at = $9,
			verification_token_hash = $10,
			verification_token_expires_at = $11,
			reset_token_hash = $12,
			reset_token_expires_at = $13
		WHERE id = $1
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.Name,
		user.IsVerified,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
		user.VerifiedAt,
		user.VerificationTokenHash,
		user.VerificationTokenExpiresAt,
		user.ResetTokenHash,
		user.ResetTokenExpiresAt,
	)
	if isUniqueViolation(err, emailUniqueConstraint) {
		return oops.With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.With("operation", "update user").With("user_id", user.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.With("user_id", user.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// ClearExpiredTokens clears every token pair whose expiry is at or before
// now.
func (r *UserRepository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			verification_token_hash = CASE WHEN verification_token_expires_at <= $1
				THEN NULL ELSE verification_token_hash END,
			verification_token_expires_at = CASE WHEN verification_token_expires_at <= $1
				THEN NULL ELSE verification_token_expires_at END,
			reset_token_hash = CASE WHEN reset_token_expires_at <= $1
				THEN NULL ELSE reset_token_hash END,
			reset_token_expires_at = CASE WHEN reset_token_expires_at <= $1
				THEN NULL ELSE reset_token_expires_at END
		WHERE verification_token_expires_at <= $1 OR reset_token_expires_at <= $1
	`, now)
	if err != nil {
		return 0, oops.With("operation", "clear expired tokens").Wrap(err)
	}
	return result.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		user  auth.User
		rawID string
	)
	err := row.Scan(
		&rawID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.IsVerified,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.VerifiedAt,
		&user.VerificationTokenHash,
		&user.VerificationTokenExpiresAt,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	user.ID, err = ulid.Parse(rawID)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("id", rawID).Wrap(err)
	}
	return &user, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}
