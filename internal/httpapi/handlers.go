// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authflow/authflow/internal/auth"
)

type handler struct {
	service AuthService
	logger  *slog.Logger
	cookie  cookieConfig
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// bind decodes the JSON body into dst. An empty body leaves dst zeroed so the
// service reports the missing fields.
func (h *handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, response{Success: false, Message: msgInvalidBody})
		return false
	}
	return true
}

func (h *handler) signup(c *gin.Context) {
	var req signupRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.Signup(c.Request.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookie.set(c, result.Session.Token, cookieMaxAge(result.Session))
	c.JSON(http.StatusCreated, response{Success: true, Message: msgSignedUp, User: &result.User})
}

func (h *handler) verifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !h.bind(c, &req) {
		return
	}

	profile, err := h.service.VerifyEmail(c.Request.Context(), req.Code)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Message: msgEmailVerified, User: profile})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookie.set(c, result.Session.Token, cookieMaxAge(result.Session))
	c.JSON(http.StatusOK, response{Success: true, Message: msgLoggedIn, User: &result.User})
}

func (h *handler) logout(c *gin.Context) {
	session, _ := sessionFrom(c)
	h.service.Logout(c.Request.Context(), session)
	h.cookie.clear(c)
	c.JSON(http.StatusOK, response{Success: true, Message: msgLoggedOut})
}

func (h *handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Message: msgResetLinkSent})
}

func (h *handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{Success: true, Message: msgPasswordReset})
}

func (h *handler) checkAuth(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response{Success: false, Message: msgNoToken})
		return
	}

	profile, err := h.service.CheckAuth(c.Request.Context(), session.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{Success: true, User: profile})
}
