// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package authtest provides in-memory collaborators for exercising the auth
// service end to end.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/authflow/authflow/internal/auth"
)

// MemoryUsers is a UserRepository backed by a map. Stored users are copied
// on the way in and out so callers cannot mutate shared state.
type MemoryUsers struct {
	mu    sync.Mutex
	users map[ulid.ULID]*auth.User
}

var _ auth.UserRepository = (*MemoryUsers)(nil)

// NewMemoryUsers creates an empty MemoryUsers.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[ulid.ULID]*auth.User)}
}

// Create stores a copy of user.
func (m *MemoryUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return oops.With("email", user.Email).Wrap(auth.ErrDuplicateEmail)
		}
	}
	m.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID returns a copy of the user with id.
func (m *MemoryUsers) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return cloneUser(u), nil
}

// GetByEmail returns a copy of the user with email.
func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	return m.findOne(func(u *auth.User) bool { return u.Email == email })
}

// GetByVerificationToken returns the single user holding tokenHash with an
// expiry after now.
func (m *MemoryUsers) GetByVerificationToken(_ context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	return m.findOne(func(u *auth.User) bool {
		return u.VerificationTokenHash != nil && *u.VerificationTokenHash == tokenHash &&
			u.VerificationTokenExpiresAt != nil && u.VerificationTokenExpiresAt.After(now)
	})
}

// GetByResetToken returns the single user holding tokenHash with an expiry
// after now.
func (m *MemoryUsers) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*auth.User, error) {
	return m.findOne(func(u *auth.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now)
	})
}

// Update replaces the stored copy of user.
func (m *MemoryUsers) Update(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return auth.ErrNotFound
	}
	m.users[user.ID] = cloneUser(user)
	return nil
}

// ClearExpiredTokens drops token pairs that expired at or before now.
func (m *MemoryUsers) ClearExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		touched := false
		if u.VerificationTokenExpiresAt != nil && !u.VerificationTokenExpiresAt.After(now) {
			u.ClearVerificationToken()
			touched = true
		}
		if u.ResetTokenExpiresAt != nil && !u.ResetTokenExpiresAt.After(now) {
			u.ClearResetToken()
			touched = true
		}
		if touched {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored users.
func (m *MemoryUsers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Put stores user directly, bypassing uniqueness checks.
func (m *MemoryUsers) Put(user *auth.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = cloneUser(user)
}

func (m *MemoryUsers) findOne(match func(*auth.User) bool) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *auth.User
	for _, u := range m.users {
		if !match(u) {
			continue
		}
		if found != nil {
			return nil, auth.ErrNotFound
		}
		found = u
	}
	if found == nil {
		return nil, auth.ErrNotFound
	}
	return cloneUser(found), nil
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	c.VerifiedAt = clonePtr(u.VerifiedAt)
	c.VerificationTokenHash = clonePtr(u.VerificationTokenHash)
	c.VerificationTokenExpiresAt = clonePtr(u.VerificationTokenExpiresAt)
	c.ResetTokenHash = clonePtr(u.ResetTokenHash)
	c.ResetTokenExpiresAt = clonePtr(u.ResetTokenExpiresAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Message is a notification captured by RecordingNotifier.
type Message struct {
	Kind  string // verification, welcome, reset_request, reset_success
	Email string
	Value string // code, name or reset URL
}

// RecordingNotifier is a Notifier that keeps every message. Set Err to make
// every send fail.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

var _ auth.Notifier = (*RecordingNotifier)(nil)

// SendVerification records a verification message.
func (n *RecordingNotifier) SendVerification(_ context.Context, email, code string) error {
	return n.record(Message{Kind: "verification", Email: email, Value: code})
}

// SendWelcome records a welcome message.
func (n *RecordingNotifier) SendWelcome(_ context.Context, email, name string) error {
	return n.record(Message{Kind: "welcome", Email: email, Value: name})
}

// SendResetRequest records a reset request message.
func (n *RecordingNotifier) SendResetRequest(_ context.Context, email, resetURL string) error {
	return n.record(Message{Kind: "reset_request", Email: email, Value: resetURL})
}

// SendResetSuccess records a reset success message.
func (n *RecordingNotifier) SendResetSuccess(_ context.Context, email string) error {
	return n.record(Message{Kind: "reset_success", Email: email})
}

// Messages returns a copy of the recorded messages.
func (n *RecordingNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}

// Last returns the most recent message of kind, or false if there is none.
func (n *RecordingNotifier) Last(kind string) (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].Kind == kind {
			return n.messages[i], true
		}
	}
	return Message{}, false
}

func (n *RecordingNotifier) record(m Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.messages = append(n.messages, m)
	return nil
}

// MemoryRevoker is a SessionRevoker backed by a map. Expiry is not tracked.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

var _ auth.SessionRevoker = (*MemoryRevoker)(nil)

// NewMemoryRevoker creates an empty MemoryRevoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Duration)}
}

// Revoke records sessionID.
func (r *MemoryRevoker) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[sessionID] = ttl
	return nil
}

// IsRevoked reports whether sessionID was recorded.
func (r *MemoryRevoker) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[sessionID]
	return ok, nil
}
