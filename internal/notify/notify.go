// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package notify delivers account notifications on behalf of the auth
// service.
package notify

// Message kinds.
const (
	KindVerification = "verification"
	KindWelcome      = "welcome"
	KindResetRequest = "reset_request"
	KindResetSuccess = "reset_success"
)
