// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cookieConfig struct {
	name   string
	secure bool
}

// set writes the session cookie. It is HTTP-only and SameSite=Strict.
func (cc cookieConfig) set(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cc.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clear expires the session cookie on the client.
func (cc cookieConfig) clear(c *gin.Context) {
	cc.set(c, "", -1)
}
