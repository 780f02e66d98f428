// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package httpapi exposes the auth service over HTTP with gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/internal/observability"
	"github.com/authflow/authflow/internal/ratelimit"
)

// BasePath prefixes every auth route.
const BasePath = "/api/auth"

// AuthService is the part of auth.Service the handlers call.
type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.AuthResult, error)
	VerifyEmail(ctx context.Context, code string) (*auth.Profile, error)
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	Logout(ctx context.Context, session *auth.Session)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	CheckAuth(ctx context.Context, userID ulid.ULID) (*auth.Profile, error)
}

// RateLimiter decides whether a client may make another request.
type RateLimiter interface {
	Allow(ctx context.Context, bucket, key string) (ratelimit.Decision, error)
}

// Options wires the router. Service, Sessions and CookieName are required.
type Options struct {
	Service  AuthService
	Sessions auth.SessionIssuer
	Revoker  auth.SessionRevoker // optional
	Limiter  RateLimiter         // optional
	Metrics  *observability.Metrics
	Logger   *slog.Logger
	Clock    auth.Clock

	CookieName string
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie   bool
	TrustedProxies []string
}

// NewRouter builds the gin engine serving the auth API.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Service == nil {
		return nil, oops.Code("HTTP_INVALID_OPTIONS").Errorf("auth service is required")
	}
	if opts.Sessions == nil {
		return nil, oops.Code("HTTP_INVALID_OPTIONS").Errorf("session issuer is required")
	}
	if opts.CookieName == "" {
		return nil, oops.Code("HTTP_INVALID_OPTIONS").Errorf("cookie name is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = auth.SystemClock{}
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, oops.Code("HTTP_INVALID_OPTIONS").With("trusted_proxies", opts.TrustedProxies).Wrap(err)
	}

	r.Use(RequestLogger(opts.Logger))
	r.Use(gin.CustomRecovery(recoverHandler(opts.Logger)))
	r.Use(RequestMetrics(opts.Metrics))

	h := &handler{
		service: opts.Service,
		logger:  opts.Logger,
		cookie:  cookieConfig{name: opts.CookieName, secure: opts.SecureCookie},
	}
	sessions := &sessionMiddleware{
		issuer:  opts.Sessions,
		revoker: opts.Revoker,
		clock:   opts.Clock,
		logger:  opts.Logger,
		cookie:  opts.CookieName,
	}
	limit := RateLimit(opts.Limiter, opts.Logger)

	api := r.Group(BasePath)
	{
		api.POST("/signup", limit, h.signup)
		api.POST("/verify-email", limit, h.verifyEmail)
		api.POST("/login", limit, h.login)
		api.POST("/logout", sessions.optional, h.logout)
		api.POST("/forgot-password", limit, h.forgotPassword)
		api.POST("/reset-password/:token", limit, h.resetPassword)
		api.GET("/check-auth", sessions.require, h.checkAuth)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response{Success: false, Message: "Not found"})
	})

	return r, nil
}

func recoverHandler(logger *slog.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic serving request",
			"panic", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response{Success: false, Message: msgInternal})
	}
}

// cookieMaxAge converts a session lifetime to whole seconds for Max-Age.
func cookieMaxAge(s *auth.Session) int {
	return int(s.ExpiresAt.Sub(s.IssuedAt) / time.Second)
}
