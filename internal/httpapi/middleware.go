// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package httpapi

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/internal/logging"
	"github.com/authflow/authflow/internal/observability"
	"github.com/authflow/authflow/pkg/errutil"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const sessionKey = "authflow.session"

// RequestLogger assigns each request an id, stores it in the request context
// for the log handler, and logs the outcome at a level chosen by status.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(ctx, "http request", attrs...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(ctx, "http request", attrs...)
		default:
			logger.InfoContext(ctx, "http request", attrs...)
		}
	}
}

// RequestMetrics records request counts and latency by route template. A nil
// m disables it.
func RequestMetrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

// RateLimit rejects clients that exceeded their budget for the route with 429.
// The budget is per client IP and route. When the limiter itself fails the
// request is let through and the failure logged.
func RateLimit(limiter RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		route := routeOf(c)
		decision, err := limiter.Allow(c.Request.Context(), route, c.ClientIP())
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limiter unavailable",
				"route", route,
				"error", err,
				"code", errutil.Code(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			observability.RecordRateLimited(route)
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response{Success: false, Message: msgTooManyRequests})
			return
		}
		c.Next()
	}
}

// sessionMiddleware resolves the session cookie into an auth.Session.
type sessionMiddleware struct {
	issuer  auth.SessionIssuer
	revoker auth.SessionRevoker
	clock   auth.Clock
	logger  *slog.Logger
	cookie  string
}

// require aborts with 401 unless the request carries a live session.
func (m *sessionMiddleware) require(c *gin.Context) {
	token, err := c.Cookie(m.cookie)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response{Success: false, Message: msgNoToken})
		return
	}

	session, err := m.issuer.Resolve(token, m.clock.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response{Success: false, Message: msgInvalidToken})
		return
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(c.Request.Context(), session.ID)
		if err != nil {
			errutil.LogErrorContext(c.Request.Context(), m.logger, "session revocation check failed", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response{Success: false, Message: msgInternal})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response{Success: false, Message: msgInvalidToken})
			return
		}
	}

	c.Set(sessionKey, session)
	c.Next()
}

// optional resolves the session cookie when present and valid, and never
// aborts.
func (m *sessionMiddleware) optional(c *gin.Context) {
	token, err := c.Cookie(m.cookie)
	if err == nil && token != "" {
		if session, resolveErr := m.issuer.Resolve(token, m.clock.Now()); resolveErr == nil {
			c.Set(sessionKey, session)
		}
	}
	c.Next()
}

func sessionFrom(c *gin.Context) (*auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*auth.Session)
	return session, ok
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
