// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/pkg/errutil"
)

// Messages written on success and for transport-level failures.
const (
	msgSignedUp        = "User created successfully"
	msgEmailVerified   = "Email verified successfully"
	msgLoggedIn        = "Logged in successfully"
	msgLoggedOut       = "Logged out successfully"
	msgResetLinkSent   = "Password reset link sent to your email"
	msgPasswordReset   = "Password reset successful"
	msgInternal        = "Internal server error"
	msgNotifyFailed    = "Failed to send email, please try again"
	msgInvalidBody     = "Invalid request body"
	msgNoToken         = "Unauthorized - no token provided"
	msgInvalidToken    = "Unauthorized - invalid token"
	msgTooManyRequests = "Too many requests, please try again later"
)

// response is the body of every auth API reply.
type response struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	User    *auth.Profile `json:"user,omitempty"`
}

// writeError maps a service error to a reply. Errors the caller caused are
// 400 with their message. Notifier failures are logged and reported as 400
// with a fixed message. Anything else is logged and hidden behind a generic
// 500.
func (h *handler) writeError(c *gin.Context, err error) {
	switch {
	case auth.IsClientError(err):
		c.JSON(http.StatusBadRequest, response{Success: false, Message: err.Error()})
		return
	case auth.KindOf(err) == auth.KindNotifier:
		errutil.LogErrorContext(c.Request.Context(), h.logger, "notification failed", err)
		c.JSON(http.StatusBadRequest, response{Success: false, Message: msgNotifyFailed})
		return
	}
	errutil.LogErrorContext(c.Request.Context(), h.logger, "request failed", err)
	c.JSON(http.StatusInternalServerError, response{Success: false, Message: msgInternal})
}
