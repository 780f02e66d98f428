// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/internal/auth/mocks"
	"github.com/authflow/authflow/pkg/errutil"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type serviceFixture struct {
	users    *mocks.MockUserRepository
	hasher   *mocks.MockPasswordHasher
	sessions *mocks.MockSessionIssuer
	notifier *mocks.MockNotifier
	tokens   *mocks.MockTokenGenerator
	revoker  *mocks.MockSessionRevoker
	clock    *auth.FixedClock
	logs     *bytes.Buffer
	svc      *auth.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		users:    mocks.NewMockUserRepository(t),
		hasher:   mocks.NewMockPasswordHasher(t),
		sessions: mocks.NewMockSessionIssuer(t),
		notifier: mocks.NewMockNotifier(t),
		tokens:   mocks.NewMockTokenGenerator(t),
		revoker:  mocks.NewMockSessionRevoker(t),
		clock:    auth.NewFixedClock(testNow),
		logs:     &bytes.Buffer{},
	}
	svc, err := auth.NewService(f.users, f.hasher, f.sessions, f.notifier,
		auth.WithClock(f.clock),
		auth.WithTokenGenerator(f.tokens),
		auth.WithRevoker(f.revoker),
		auth.WithLogger(slog.New(slog.NewJSONHandler(f.logs, nil))),
		auth.WithResetURLBase("https://app.example.com/"),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func pendingUser(t *testing.T) *auth.User {
	t.Helper()
	u, err := auth.NewUser("a@x.com", "A", "stored-hash", testNow.Add(-time.Hour))
	require.NoError(t, err)
	return u
}

func TestNewService_NilDependencies(t *testing.T) {
	users := mocks.NewMockUserRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)
	sessions := mocks.NewMockSessionIssuer(t)
	notifier := mocks.NewMockNotifier(t)

	tests := []struct {
		name        string
		users       auth.UserRepository
		hasher      auth.PasswordHasher
		sessions    auth.SessionIssuer
		notifier    auth.Notifier
		opts        []auth.ServiceOption
		expectError string
	}{
		{"nil users repository", nil, hasher, sessions, notifier, nil, "users repository is required"},
		{"nil password hasher", users, nil, sessions, notifier, nil, "password hasher is required"},
		{"nil session issuer", users, hasher, nil, notifier, nil, "session issuer is required"},
		{"nil notifier", users, hasher, sessions, nil, nil, "notifier is required"},
		{"nil logger", users, hasher, sessions, notifier, []auth.ServiceOption{auth.WithLogger(nil)}, "logger is required"},
		{"nil clock", users, hasher, sessions, notifier, []auth.ServiceOption{auth.WithClock(nil)}, "clock is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewService(tt.users, tt.hasher, tt.sessions, tt.notifier, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestService_Signup(t *testing.T) {
	ctx := context.Background()
	input := auth.SignupInput{Email: " A@X.com ", Password: "pw123456", Name: "A"}

	t.Run("creates unverified user and sends code", func(t *testing.T) {
		f := newServiceFixture(t)
		session := &auth.Session{ID: "sid", Token: "signed"}

		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, auth.ErrNotFound)
		f.hasher.On("Hash", "pw123456").Return("hashed", nil)
		f.tokens.On("VerificationCode").Return("123456", nil)
		f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.Email == "a@x.com" &&
				u.PasswordHash == "hashed" &&
				!u.IsVerified &&
				*u.VerificationTokenHash == auth.HashToken("123456") &&
				u.VerificationTokenExpiresAt.Equal(testNow.Add(24*time.Hour))
		})).Return(nil)
		f.sessions.On("Issue", mock.AnythingOfType("ulid.ULID"), testNow).Return(session, nil)
		f.notifier.On("SendVerification", mock.Anything, "a@x.com", "123456").Return(nil)

		result, err := f.svc.Signup(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", result.User.Email)
		assert.False(t, result.User.IsVerified)
		assert.Same(t, session, result.Session)
		assert.NotContains(t, f.logs.String(), "123456")
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newServiceFixture(t)
		for _, in := range []auth.SignupInput{
			{Password: "pw123456", Name: "A"},
			{Email: "a@x.com", Name: "A"},
			{Email: "a@x.com", Password: "pw123456", Name: "   "},
		} {
			_, err := f.svc.Signup(ctx, in)
			errutil.AssertErrorCode(t, err, auth.CodeValidation)
			assert.Equal(t, auth.KindValidation, auth.KindOf(err))
			assert.Equal(t, "All fields are required", err.Error())
		}
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		f := newServiceFixture(t)
		long := strings.Repeat("p", auth.MaxPasswordLength+1)
		_, err := f.svc.Signup(ctx, auth.SignupInput{Email: "a@x.com", Password: long, Name: "A"})
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})

	t.Run("already registered", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(pendingUser(t), nil)

		_, err := f.svc.Signup(ctx, input)
		errutil.AssertErrorCode(t, err, auth.CodeEmailTaken)
		assert.Equal(t, auth.KindConflict, auth.KindOf(err))
		assert.Equal(t, "User already exists", err.Error())
	})

	t.Run("duplicate detected by store", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, auth.ErrNotFound)
		f.hasher.On("Hash", "pw123456").Return("hashed", nil)
		f.tokens.On("VerificationCode").Return("123456", nil)
		f.users.On("Create", mock.Anything, mock.Anything).Return(auth.ErrDuplicateEmail)

		_, err := f.svc.Signup(ctx, input)
		errutil.AssertErrorCode(t, err, auth.CodeEmailTaken)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))

		_, err := f.svc.Signup(ctx, input)
		errutil.AssertErrorCode(t, err, auth.CodeStoreFailed)
		errutil.AssertErrorContext(t, err, "operation", "get user by email")
		assert.Equal(t, auth.KindStore, auth.KindOf(err))
	})

	t.Run("notifier failure surfaces after create", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, auth.ErrNotFound)
		f.hasher.On("Hash", "pw123456").Return("hashed", nil)
		f.tokens.On("VerificationCode").Return("123456", nil)
		f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.sessions.On("Issue", mock.Anything, testNow).Return(&auth.Session{ID: "sid"}, nil)
		f.notifier.On("SendVerification", mock.Anything, "a@x.com", "123456").Return(errors.New("smtp down"))

		result, err := f.svc.Signup(ctx, input)
		assert.Nil(t, result)
		errutil.AssertErrorCode(t, err, auth.CodeNotifyFailed)
		assert.Equal(t, auth.KindNotifier, auth.KindOf(err))
		f.users.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code verifies and clears token", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		user.SetVerificationToken(auth.HashToken("123456"), testNow.Add(time.Minute))

		f.users.On("GetByVerificationToken", mock.Anything, auth.HashToken("123456"), mock.Anything).Return(user, nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.IsVerified &&
				u.VerificationTokenHash == nil &&
				u.VerificationTokenExpiresAt == nil &&
				u.CreatedAt.Equal(testNow) &&
				u.VerifiedAt != nil && u.VerifiedAt.Equal(testNow)
		})).Return(nil)
		f.notifier.On("SendWelcome", mock.Anything, "a@x.com", "A").Return(nil)

		profile, err := f.svc.VerifyEmail(ctx, "123456")
		require.NoError(t, err)
		assert.True(t, profile.IsVerified)
	})

	t.Run("unknown code", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByVerificationToken", mock.Anything, auth.HashToken("000000"), mock.Anything).Return(nil, auth.ErrNotFound)

		_, err := f.svc.VerifyEmail(ctx, "000000")
		errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
		assert.Equal(t, "Invalid or expired verification code", err.Error())
	})

	t.Run("code expiring exactly now is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		user.SetVerificationToken(auth.HashToken("123456"), testNow)
		f.users.On("GetByVerificationToken", mock.Anything, auth.HashToken("123456"), mock.Anything).Return(user, nil)

		_, err := f.svc.VerifyEmail(ctx, "123456")
		errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("empty code", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.VerifyEmail(ctx, "  ")
		errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
	})

	t.Run("welcome notification failure", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		user.SetVerificationToken(auth.HashToken("123456"), testNow.Add(time.Minute))
		f.users.On("GetByVerificationToken", mock.Anything, mock.Anything, mock.Anything).Return(user, nil)
		f.users.On("Update", mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("SendWelcome", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom"))

		_, err := f.svc.VerifyEmail(ctx, "123456")
		errutil.AssertErrorCode(t, err, auth.CodeNotifyFailed)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success updates last login and issues session", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		session := &auth.Session{ID: "sid", UserID: user.ID}

		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Verify", "pw123456", "stored-hash").Return(true, nil)
		f.hasher.On("NeedsUpgrade", "stored-hash").Return(false)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.LastLogin.Equal(testNow) && u.PasswordHash == "stored-hash"
		})).Return(nil)
		f.sessions.On("Issue", user.ID, testNow).Return(session, nil)

		result, err := f.svc.Login(ctx, "a@x.com", "pw123456")
		require.NoError(t, err)
		assert.Equal(t, testNow, result.User.LastLogin)
		assert.Same(t, session, result.Session)
	})

	t.Run("rehashes when hasher asks for upgrade", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)

		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.hasher.On("Verify", "pw123456", "stored-hash").Return(true, nil)
		f.hasher.On("NeedsUpgrade", "stored-hash").Return(true)
		f.hasher.On("Hash", "pw123456").Return("upgraded-hash", nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.PasswordHash == "upgraded-hash"
		})).Return(nil)
		f.sessions.On("Issue", user.ID, testNow).Return(&auth.Session{}, nil)

		_, err := f.svc.Login(ctx, "a@x.com", "pw123456")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(pendingUser(t), nil)
		f.hasher.On("Verify", "wrong-pw", "stored-hash").Return(false, nil)

		_, err := f.svc.Login(ctx, "a@x.com", "wrong-pw")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)
		assert.Equal(t, "Invalid credentials", err.Error())
	})

	t.Run("unknown email still verifies against a dummy hash", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, auth.ErrNotFound)
		f.hasher.On("Hash", mock.AnythingOfType("string")).Return("dummy-hash", nil).Once()
		f.hasher.On("Verify", "pw123456", "dummy-hash").Return(false, nil)

		_, err := f.svc.Login(ctx, "nobody@x.com", "pw123456")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)
		assert.Equal(t, "Invalid credentials", err.Error())

		// dummy hash is computed once
		_, err = f.svc.Login(ctx, "nobody@x.com", "pw123456")
		errutil.AssertErrorCode(t, err, auth.CodeInvalidCredentials)
		f.hasher.AssertNumberOfCalls(t, "Hash", 1)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(pendingUser(t), nil)
		f.users.On("GetByEmail", mock.Anything, "b@x.com").Return(nil, auth.ErrNotFound)
		f.hasher.On("Hash", mock.Anything).Return("dummy-hash", nil)
		f.hasher.On("Verify", mock.Anything, mock.Anything).Return(false, nil)

		_, errWrong := f.svc.Login(ctx, "a@x.com", "bad-pw")
		_, errUnknown := f.svc.Login(ctx, "b@x.com", "bad-pw")
		assert.Equal(t, auth.KindOf(errWrong), auth.KindOf(errUnknown))
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.Login(ctx, "", "pw123456")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
		_, err = f.svc.Login(ctx, "a@x.com", "")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})

	t.Run("corrupt stored hash is internal", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(pendingUser(t), nil)
		f.hasher.On("Verify", "pw123456", "stored-hash").Return(false, errors.New("bad hash"))

		_, err := f.svc.Login(ctx, "a@x.com", "pw123456")
		errutil.AssertErrorCode(t, err, auth.CodeInternal)
		assert.Equal(t, auth.KindInternal, auth.KindOf(err))
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes live session for its remaining lifetime", func(t *testing.T) {
		f := newServiceFixture(t)
		session := &auth.Session{ID: "sid", UserID: ulid.Make(), ExpiresAt: testNow.Add(time.Hour)}
		f.revoker.On("Revoke", mock.Anything, "sid", time.Hour).Return(nil)

		f.svc.Logout(ctx, session)
	})

	t.Run("without session does nothing", func(t *testing.T) {
		f := newServiceFixture(t)
		f.svc.Logout(ctx, nil)
		f.revoker.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("revocation failure is only logged", func(t *testing.T) {
		f := newServiceFixture(t)
		session := &auth.Session{ID: "sid", UserID: ulid.Make(), ExpiresAt: testNow.Add(time.Hour)}
		f.revoker.On("Revoke", mock.Anything, "sid", time.Hour).Return(errors.New("redis down"))

		f.svc.Logout(ctx, session)
		assert.Contains(t, f.logs.String(), "session revocation failed")
	})
}

func TestService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("stores reset token and sends link", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		f.users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.tokens.On("OpaqueToken").Return("deadbeef", nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return *u.ResetTokenHash == auth.HashToken("deadbeef") &&
				u.ResetTokenExpiresAt.Equal(testNow.Add(time.Hour))
		})).Return(nil)
		f.notifier.On("SendResetRequest", mock.Anything, "a@x.com",
			"https://app.example.com/reset-password/deadbeef").Return(nil)

		require.NoError(t, f.svc.ForgotPassword(ctx, "a@x.com"))
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, auth.ErrNotFound)

		err := f.svc.ForgotPassword(ctx, "nobody@x.com")
		errutil.AssertErrorCode(t, err, auth.CodeUserNotFound)
		assert.Equal(t, "User not found", err.Error())
	})

	t.Run("empty email", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.svc.ForgotPassword(ctx, "")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})
}

func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces password and clears token", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		user.SetResetToken(auth.HashToken("deadbeef"), testNow.Add(time.Minute))

		f.users.On("GetByResetToken", mock.Anything, auth.HashToken("deadbeef"), mock.Anything).Return(user, nil)
		f.hasher.On("Hash", "newpw1").Return("new-hash", nil)
		f.users.On("Update", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
			return u.PasswordHash == "new-hash" && u.ResetTokenHash == nil && u.ResetTokenExpiresAt == nil
		})).Return(nil)
		f.notifier.On("SendResetSuccess", mock.Anything, "a@x.com").Return(nil)

		require.NoError(t, f.svc.ResetPassword(ctx, "deadbeef", "newpw1"))
	})

	t.Run("expired token", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		user.SetResetToken(auth.HashToken("deadbeef"), testNow.Add(-time.Second))
		f.users.On("GetByResetToken", mock.Anything, auth.HashToken("deadbeef"), mock.Anything).Return(user, nil)

		err := f.svc.ResetPassword(ctx, "deadbeef", "newpw1")
		errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
		assert.Equal(t, "Invalid or expired reset token", err.Error())
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByResetToken", mock.Anything, mock.Anything, mock.Anything).Return(nil, auth.ErrNotFound)

		err := f.svc.ResetPassword(ctx, "nope", "newpw1")
		errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
	})

	t.Run("missing password", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.svc.ResetPassword(ctx, "deadbeef", "")
		errutil.AssertErrorCode(t, err, auth.CodeValidation)
	})
}

func TestService_CheckAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("returns profile", func(t *testing.T) {
		f := newServiceFixture(t)
		user := pendingUser(t)
		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		profile, err := f.svc.CheckAuth(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), profile.ID)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newServiceFixture(t)
		id := ulid.Make()
		f.users.On("GetByID", mock.Anything, id).Return(nil, auth.ErrNotFound)

		_, err := f.svc.CheckAuth(ctx, id)
		errutil.AssertErrorCode(t, err, auth.CodeUserNotFound)
		errutil.AssertErrorContext(t, err, "user_id", id.String())
	})
}

func TestService_PruneExpiredTokens(t *testing.T) {
	f := newServiceFixture(t)
	f.users.On("ClearExpiredTokens", mock.Anything, testNow).Return(int64(3), nil)

	n, err := f.svc.PruneExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestValidatePassword(t *testing.T) {
	for _, pw := range []string{"a", "abc", strings.Repeat("x", auth.MaxPasswordLength)} {
		assert.NoError(t, auth.ValidatePassword(pw), "len %d", len(pw))
	}
	errutil.AssertErrorCode(t, auth.ValidatePassword(strings.Repeat("x", auth.MaxPasswordLength+1)), auth.CodeValidation)
}
