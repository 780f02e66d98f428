// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth

import "context"

// Notifier delivers account messages to users. Implementations must return
// an error when a message could not be handed off; the service surfaces it
// to the caller.
type Notifier interface {
	// SendVerification delivers the email verification code.
	SendVerification(ctx context.Context, email, code string) error

	// SendWelcome greets a user whose email was just verified.
	SendWelcome(ctx context.Context, email, name string) error

	// SendResetRequest delivers the password reset link.
	SendResetRequest(ctx context.Context, email, resetURL string) error

	// SendResetSuccess confirms a completed password reset.
	SendResetSuccess(ctx context.Context, email string) error
}
