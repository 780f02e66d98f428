// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package config loads and validates the authflow configuration.
//
// Values are layered, later sources winning: built-in defaults, the YAML
// config file, command-line flags, then a fixed set of environment
// variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/authflow/authflow/internal/auth"
	"github.com/authflow/authflow/internal/logging"
)

// CodeInvalid is the oops code of every configuration error.
const CodeInvalid = "CONFIG_INVALID"

// Notifier drivers.
const (
	NotifyDriverLog   = "log"
	NotifyDriverRedis = "redis"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server" json:"server,omitempty"`
	Database  DatabaseConfig  `koanf:"database" json:"database,omitempty"`
	Redis     RedisConfig     `koanf:"redis" json:"redis,omitempty"`
	Session   SessionConfig   `koanf:"session" json:"session,omitempty"`
	Tokens    TokensConfig    `koanf:"tokens" json:"tokens,omitempty"`
	Password  PasswordConfig  `koanf:"password" json:"password,omitempty"`
	Client    ClientConfig    `koanf:"client" json:"client,omitempty"`
	Notify    NotifyConfig    `koanf:"notify" json:"notify,omitempty"`
	RateLimit RateLimitConfig `koanf:"ratelimit" json:"ratelimit,omitempty"`
	Log       LogConfig       `koanf:"log" json:"log,omitempty"`
	Metrics   MetricsConfig   `koanf:"metrics" json:"metrics,omitempty"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Addr           string   `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address of the auth API"`
	Production     bool     `koanf:"production" json:"production,omitempty" jsonschema:"description=Enables release mode and Secure cookies"`
	TrustedProxies []string `koanf:"trusted_proxies" json:"trusted_proxies,omitempty" jsonschema:"description=Proxy CIDRs whose X-Forwarded-For is honoured"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	URL string `koanf:"url" json:"url,omitempty" jsonschema:"description=PostgreSQL URL (env DATABASE_URL)"`
}

// RedisConfig configures the redis used for rate limits, revocation and the
// notification stream. An empty URL disables all three.
type RedisConfig struct {
	URL       string `koanf:"url" json:"url,omitempty" jsonschema:"description=Redis URL (env REDIS_URL)"`
	KeyPrefix string `koanf:"key_prefix" json:"key_prefix,omitempty"`
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	Secret     string        `koanf:"secret" json:"secret,omitempty" jsonschema:"description=HMAC key for session tokens (env AUTHFLOW_SESSION_SECRET),minLength=32"`
	TTL        time.Duration `koanf:"ttl" json:"ttl,omitempty"`
	CookieName string        `koanf:"cookie_name" json:"cookie_name,omitempty"`
}

// TokensConfig sets how long emailed codes stay valid.
type TokensConfig struct {
	VerificationTTL time.Duration `koanf:"verification_ttl" json:"verification_ttl,omitempty"`
	ResetTTL        time.Duration `koanf:"reset_ttl" json:"reset_ttl,omitempty"`
}

// PasswordConfig selects the password hasher.
type PasswordConfig struct {
	Algorithm  string `koanf:"algorithm" json:"algorithm,omitempty" jsonschema:"enum=bcrypt,enum=argon2id"`
	BcryptCost int    `koanf:"bcrypt_cost" json:"bcrypt_cost,omitempty" jsonschema:"minimum=4,maximum=31"`
}

// ClientConfig describes the web client that hosts the reset page.
type ClientConfig struct {
	URL string `koanf:"url" json:"url,omitempty" jsonschema:"description=Base URL of the web client; reset links point here"`
}

// NotifyConfig selects how notifications leave the service.
type NotifyConfig struct {
	Driver string `koanf:"driver" json:"driver,omitempty" jsonschema:"enum=log,enum=redis"`
	Stream string `koanf:"stream" json:"stream,omitempty" jsonschema:"description=Redis stream for the redis driver"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled bool          `koanf:"enabled" json:"enabled,omitempty"`
	Limit   int           `koanf:"limit" json:"limit,omitempty" jsonschema:"minimum=1"`
	Window  time.Duration `koanf:"window" json:"window,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=Listen address for /metrics and /healthz; empty disables"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":5000"},
		Redis:  RedisConfig{KeyPrefix: "authflow"},
		Session: SessionConfig{
			TTL:        auth.DefaultSessionTTL,
			CookieName: "token",
		},
		Tokens: TokensConfig{
			VerificationTTL: auth.VerificationTokenTTL,
			ResetTTL:        auth.ResetTokenTTL,
		},
		Password: PasswordConfig{
			Algorithm:  auth.AlgorithmBcrypt,
			BcryptCost: auth.DefaultBcryptCost,
		},
		Client:    ClientConfig{URL: auth.DefaultResetURLBase},
		Notify:    NotifyConfig{Driver: NotifyDriverLog, Stream: "authflow:notifications"},
		RateLimit: RateLimitConfig{Limit: 10, Window: time.Minute},
		Log:       LogConfig{Format: "json", Level: "info"},
		Metrics:   MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// Validate reports every problem that would stop `authflow serve` from
// starting.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Server.Addr == "" {
		add("server.addr is required")
	}
	if c.Database.URL == "" {
		add("database.url is required")
	}
	if len(c.Session.Secret) < auth.MinSecretLength {
		add("session.secret must be at least %d bytes", auth.MinSecretLength)
	}
	if c.Session.TTL <= 0 {
		add("session.ttl must be positive")
	}
	if c.Session.CookieName == "" {
		add("session.cookie_name is required")
	}
	if c.Tokens.VerificationTTL <= 0 {
		add("tokens.verification_ttl must be positive")
	}
	if c.Tokens.ResetTTL <= 0 {
		add("tokens.reset_ttl must be positive")
	}

	switch c.Password.Algorithm {
	case auth.AlgorithmBcrypt:
		if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
			add("password.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
	case auth.AlgorithmArgon2id:
	default:
		add("password.algorithm must be %q or %q", auth.AlgorithmBcrypt, auth.AlgorithmArgon2id)
	}

	if u, err := url.Parse(c.Client.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("client.url must be an absolute http(s) URL")
	}

	switch c.Notify.Driver {
	case NotifyDriverLog:
	case NotifyDriverRedis:
		if c.Redis.URL == "" {
			add("notify.driver=redis requires redis.url")
		}
		if c.Notify.Stream == "" {
			add("notify.stream is required for the redis driver")
		}
	default:
		add("notify.driver must be %q or %q", NotifyDriverLog, NotifyDriverRedis)
	}

	if c.RateLimit.Enabled {
		if c.Redis.URL == "" {
			add("ratelimit.enabled requires redis.url")
		}
		if c.RateLimit.Limit <= 0 {
			add("ratelimit.limit must be positive")
		}
		if c.RateLimit.Window <= 0 {
			add("ratelimit.window must be positive")
		}
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		add("log.format must be json or text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level must be debug, info, warn or error")
	}

	if len(problems) > 0 {
		return oops.Code(CodeInvalid).
			With("problems", problems).
			Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
