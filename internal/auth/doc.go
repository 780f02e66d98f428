// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package auth implements email and password accounts.
//
// # Domain Types
//
// A User is the credential record for one email address. Create it with
// NewUser, which normalizes the email and validates the name. Verification
// and reset tokens are stored as SHA-256 digests paired with an expiry; use
// the Set/Clear helpers so the pair never goes out of step.
//
// # Services
//
// Service coordinates the account lifecycle:
//   - Signup, VerifyEmail - registration and email ownership proof
//   - Login, Logout, CheckAuth - sessions
//   - ForgotPassword, ResetPassword - password recovery
//
// Collaborators are injected: UserRepository for storage, PasswordHasher,
// SessionIssuer, TokenGenerator, Notifier for outbound messages, and a Clock
// that decides every expiry comparison.
package auth
