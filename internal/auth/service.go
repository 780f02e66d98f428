// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/authflow/authflow/internal/observability"
)

var tracer = otel.Tracer("github.com/authflow/authflow/internal/auth")

// MaxPasswordLength is the bcrypt input limit in bytes.
const MaxPasswordLength = 72

// DefaultResetURLBase is the client origin used to build reset links.
const DefaultResetURLBase = "http://localhost:5173"

// Messages returned to callers. They are safe to show to end users.
const (
	msgFieldsRequired      = "All fields are required"
	msgUserExists          = "User already exists"
	msgInvalidCode         = "Invalid or expired verification code"
	msgInvalidCredentials  = "Invalid credentials"
	msgUserNotFound        = "User not found"
	msgInvalidResetToken   = "Invalid or expired reset token"
	msgPasswordRequired    = "Password is required"
	msgEmailRequired       = "Email is required"
	dummyPasswordPlaintext = "authflow-timing-defense-never-a-password"
)

// SessionRevoker records sessions that were ended before their expiry.
type SessionRevoker interface {
	// Revoke marks sessionID as ended for ttl.
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error

	// IsRevoked reports whether sessionID was revoked.
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// SignupInput carries the fields required to create an account.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// AuthResult is returned by operations that start a session.
type AuthResult struct {
	User    Profile
	Session *Session
}

// Service implements the account lifecycle: signup, email verification,
// login, logout, password reset and session checks.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	sessions SessionIssuer
	notifier Notifier
	tokens   TokenGenerator
	clock    Clock
	revoker  SessionRevoker // optional, can be nil
	logger   *slog.Logger

	resetURLBase    string
	verificationTTL time.Duration
	resetTTL        time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*Service)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithTokenGenerator replaces the crypto/rand token source.
func WithTokenGenerator(g TokenGenerator) ServiceOption {
	return func(s *Service) { s.tokens = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithRevoker enables server-side session revocation on logout.
func WithRevoker(r SessionRevoker) ServiceOption {
	return func(s *Service) { s.revoker = r }
}

// WithResetURLBase sets the origin that reset links point at.
func WithResetURLBase(base string) ServiceOption {
	return func(s *Service) { s.resetURLBase = strings.TrimRight(base, "/") }
}

// WithTokenTTLs overrides the verification and reset token lifetimes.
// Zero values keep the defaults.
func WithTokenTTLs(verification, reset time.Duration) ServiceOption {
	return func(s *Service) {
		if verification > 0 {
			s.verificationTTL = verification
		}
		if reset > 0 {
			s.resetTTL = reset
		}
	}
}

// NewService creates a Service. Returns an error if a required dependency is
// nil.
func NewService(users UserRepository, hasher PasswordHasher, sessions SessionIssuer, notifier Notifier, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session issuer is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}

	s := &Service{
		users:           users,
		hasher:          hasher,
		sessions:        sessions,
		notifier:        notifier,
		tokens:          RandomTokens{},
		clock:           SystemClock{},
		logger:          slog.Default(),
		resetURLBase:    DefaultResetURLBase,
		verificationTTL: VerificationTokenTTL,
		resetTTL:        ResetTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if s.clock == nil {
		return nil, oops.Errorf("clock is required")
	}
	if s.tokens == nil {
		return nil, oops.Errorf("token generator is required")
	}
	return s, nil
}

// Signup registers a new unverified account, starts a session for it and
// sends the verification code.
//
// The record is not removed if the notification fails afterwards.
func (s *Service) Signup(ctx context.Context, in SignupInput) (result *AuthResult, err error) {
	ctx, end := s.begin(ctx, "signup")
	defer end(&err)

	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, oops.Code(CodeValidation).Errorf(msgFieldsRequired)
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, lookupErr := s.users.GetByEmail(ctx, email); lookupErr == nil {
		return nil, oops.Code(CodeEmailTaken).With("email", email).Errorf(msgUserExists)
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return nil, storeError("get user by email", lookupErr)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code(CodeInternal).With("operation", "hash password").Wrap(err)
	}

	code, err := s.tokens.VerificationCode()
	if err != nil {
		return nil, oops.Code(CodeInternal).With("operation", "generate verification code").Wrap(err)
	}

	now := s.clock.Now()
	user, err := NewUser(email, in.Name, hash, now)
	if err != nil {
		return nil, err
	}
	user.SetVerificationToken(HashToken(code), now.Add(s.verificationTTL))

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code(CodeEmailTaken).With("email", email).Errorf(msgUserExists)
		}
		return nil, storeError("create user", err)
	}

	session, err := s.sessions.Issue(user.ID, now)
	if err != nil {
		return nil, oops.Code(CodeSessionFailed).With("user_id", user.ID.String()).Wrap(err)
	}

	if err := s.notifier.SendVerification(ctx, user.Email, code); err != nil {
		return nil, notifyError("verification", user, err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.String())
	return &AuthResult{User: user.Profile(), Session: session}, nil
}

// VerifyEmail consumes a verification code and marks its owner verified.
func (s *Service) VerifyEmail(ctx context.Context, code string) (profile *Profile, err error) {
	ctx, end := s.begin(ctx, "verify_email")
	defer end(&err)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, oops.Code(CodeTokenInvalid).Errorf(msgInvalidCode)
	}

	now := s.clock.Now()
	user, err := s.users.GetByVerificationToken(ctx, HashToken(code), now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeTokenInvalid).Errorf(msgInvalidCode)
		}
		return nil, storeError("get user by verification token", err)
	}

	if !user.VerificationPendingAt(now) {
		return nil, oops.Code(CodeTokenInvalid).With("user_id", user.ID.String()).Errorf(msgInvalidCode)
	}

	if !user.MarkVerified(now) {
		s.logger.WarnContext(ctx, "verification token held by verified user", "user_id", user.ID.String())
	}
	user.ClearVerificationToken()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError("update user", err)
	}

	if err := s.notifier.SendWelcome(ctx, user.Email, user.Name); err != nil {
		return nil, notifyError("welcome", user, err)
	}

	s.logger.InfoContext(ctx, "email verified", "user_id", user.ID.String())
	p := user.Profile()
	return &p, nil
}

// Login checks an email and password pair and starts a session.
//
// Unknown emails and wrong passwords produce the same error, and a password
// verification runs in both cases.
func (s *Service) Login(ctx context.Context, email, password string) (result *AuthResult, err error) {
	ctx, end := s.begin(ctx, "login")
	defer end(&err)

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, oops.Code(CodeValidation).Errorf(msgFieldsRequired)
	}
	email, err = NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetByEmail(ctx, email)
	var targetHash string
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.dummyPasswordHash()
		user = nil
	default:
		return nil, storeError("get user by email", lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if user == nil {
			return nil, oops.Code(CodeInvalidCredentials).Errorf(msgInvalidCredentials)
		}
		return nil, oops.Code(CodeInternal).
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(verifyErr)
	}
	if user == nil || !valid {
		return nil, oops.Code(CodeInvalidCredentials).Errorf(msgInvalidCredentials)
	}

	now := s.clock.Now()
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if upgraded, hashErr := s.hasher.Hash(password); hashErr == nil {
			user.PasswordHash = upgraded
		} else {
			s.logger.WarnContext(ctx, "password hash upgrade failed", "user_id", user.ID.String(), "error", hashErr)
		}
	}
	user.LastLogin = now
	user.UpdatedAt = now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError("update user", err)
	}

	session, err := s.sessions.Issue(user.ID, now)
	if err != nil {
		return nil, oops.Code(CodeSessionFailed).With("user_id", user.ID.String()).Wrap(err)
	}

	return &AuthResult{User: user.Profile(), Session: session}, nil
}

// Logout ends session. It never fails: the caller always clears the client's
// cookie, and a revocation failure is only logged.
func (s *Service) Logout(ctx context.Context, session *Session) {
	ctx, end := s.begin(ctx, "logout")
	var err error
	defer end(&err)

	if session == nil || s.revoker == nil {
		return
	}
	ttl := session.TTLAt(s.clock.Now())
	if ttl == 0 {
		return
	}
	if revokeErr := s.revoker.Revoke(ctx, session.ID, ttl); revokeErr != nil {
		s.logger.WarnContext(ctx, "session revocation failed",
			"session_id", session.ID,
			"user_id", session.UserID.String(),
			"error", revokeErr,
		)
	}
}

// ForgotPassword stores a fresh reset token for the account and sends the
// reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, end := s.begin(ctx, "forgot_password")
	defer end(&err)

	if strings.TrimSpace(email) == "" {
		return oops.Code(CodeValidation).Errorf(msgEmailRequired)
	}
	email, err = NormalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeUserNotFound).Errorf(msgUserNotFound)
		}
		return storeError("get user by email", err)
	}

	token, err := s.tokens.OpaqueToken()
	if err != nil {
		return oops.Code(CodeInternal).With("operation", "generate reset token").Wrap(err)
	}

	now := s.clock.Now()
	user.SetResetToken(HashToken(token), now.Add(s.resetTTL))
	user.UpdatedAt = now

	if err := s.users.Update(ctx, user); err != nil {
		return storeError("update user", err)
	}

	if err := s.notifier.SendResetRequest(ctx, user.Email, s.ResetURL(token)); err != nil {
		return notifyError("reset request", user, err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID.String())
	return nil
}

// ResetPassword consumes a reset token and replaces its owner's password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) (err error) {
	ctx, end := s.begin(ctx, "reset_password")
	defer end(&err)

	token = strings.TrimSpace(token)
	if token == "" {
		return oops.Code(CodeTokenInvalid).Errorf(msgInvalidResetToken)
	}
	if password == "" {
		return oops.Code(CodeValidation).Errorf(msgPasswordRequired)
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	now := s.clock.Now()
	user, err := s.users.GetByResetToken(ctx, HashToken(token), now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeTokenInvalid).Errorf(msgInvalidResetToken)
		}
		return storeError("get user by reset token", err)
	}

	if !user.ResetPendingAt(now) {
		return oops.Code(CodeTokenInvalid).With("user_id", user.ID.String()).Errorf(msgInvalidResetToken)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code(CodeInternal).With("operation", "hash password").Wrap(err)
	}
	user.PasswordHash = hash
	user.ClearResetToken()
	user.UpdatedAt = now

	if err := s.users.Update(ctx, user); err != nil {
		return storeError("update user", err)
	}

	if err := s.notifier.SendResetSuccess(ctx, user.Email); err != nil {
		return notifyError("reset success", user, err)
	}

	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID.String())
	return nil
}

// CheckAuth returns the profile of the user a session resolved to.
func (s *Service) CheckAuth(ctx context.Context, userID ulid.ULID) (profile *Profile, err error) {
	ctx, end := s.begin(ctx, "check_auth")
	defer end(&err)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUserNotFound).With("user_id", userID.String()).Errorf(msgUserNotFound)
		}
		return nil, storeError("get user by id", err)
	}
	p := user.Profile()
	return &p, nil
}

// PruneExpiredTokens clears verification and reset tokens that can no longer
// be used and returns the number of accounts touched.
func (s *Service) PruneExpiredTokens(ctx context.Context) (n int64, err error) {
	ctx, end := s.begin(ctx, "prune_tokens")
	defer end(&err)

	n, err = s.users.ClearExpiredTokens(ctx, s.clock.Now())
	if err != nil {
		return 0, storeError("clear expired tokens", err)
	}
	return n, nil
}

// ResetURL builds the link a user follows to choose a new password.
func (s *Service) ResetURL(token string) string {
	return s.resetURLBase + "/reset-password/" + token
}

// ValidatePassword rejects passwords longer than the hasher accepts. Any
// non-empty password up to that length is allowed.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordLength {
		return oops.Code(CodeValidation).
			With("max", MaxPasswordLength).
			Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// dummyPasswordHash returns a digest from the configured hasher that no
// password matches, so unknown emails cost the same as wrong passwords.
func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPasswordPlaintext)
		if err != nil {
			s.logger.Warn("dummy password hash unavailable", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// begin starts the span for an operation. The returned func ends it and
// records the outcome.
func (s *Service) begin(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, span := tracer.Start(ctx, "auth."+op)
	return ctx, func(errp *error) {
		result := "success"
		if err := *errp; err != nil {
			result = KindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("auth.result", result))
		observability.RecordAuthOperation(op, result)
		span.End()
	}
}

func storeError(operation string, err error) error {
	return oops.Code(CodeStoreFailed).With("operation", operation).Wrap(err)
}

func notifyError(message string, user *User, err error) error {
	return oops.Code(CodeNotifyFailed).
		With("message", message).
		With("user_id", user.ID.String()).
		Wrap(err)
}
