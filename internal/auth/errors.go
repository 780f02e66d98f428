// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by UserRepository.Create when the email is
// already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Error codes attached to every error returned by Service.
const (
	CodeValidation         = "AUTH_VALIDATION"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodeUserNotFound       = "AUTH_USER_NOT_FOUND"
	CodeNotifyFailed       = "AUTH_NOTIFY_FAILED"
	CodeStoreFailed        = "AUTH_STORE_FAILED"
	CodeSessionFailed      = "AUTH_SESSION_FAILED"
	CodeInternal           = "AUTH_INTERNAL"
)

// Kind classifies a service error for callers that need to map it onto a
// transport status.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindInvalidToken
	KindNotFound
	KindNotifier
	KindStore
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindValidation:         "validation",
	KindConflict:           "conflict",
	KindInvalidCredentials: "invalid_credentials",
	KindInvalidToken:       "invalid_token",
	KindNotFound:           "not_found",
	KindNotifier:           "notifier",
	KindStore:              "store",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

var kindByCode = map[string]Kind{
	CodeValidation:         KindValidation,
	CodeEmailTaken:         KindConflict,
	CodeInvalidCredentials: KindInvalidCredentials,
	CodeTokenInvalid:       KindInvalidToken,
	CodeUserNotFound:       KindNotFound,
	CodeNotifyFailed:       KindNotifier,
	CodeStoreFailed:        KindStore,
}

// KindOf reports the kind of err. Errors that carry no recognised code,
// including nil, are KindInternal.
func KindOf(err error) Kind {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	code, _ := oopsErr.Code().(string)
	if kind, found := kindByCode[code]; found {
		return kind
	}
	return KindInternal
}

// IsClientError reports whether err was caused by the caller rather than by
// the service or one of its dependencies.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindInvalidCredentials, KindInvalidToken, KindNotFound:
		return true
	default:
		return false
	}
}
