// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

// Package ratelimit implements a fixed-window request limiter on redis.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// CodeUnavailable marks errors talking to redis.
const CodeUnavailable = "RATELIMIT_UNAVAILABLE"

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long until the window resets. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter counts hits per key in fixed windows. The window starts at the
// first hit and its counter expires with it.
type Limiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// New creates a Limiter allowing limit hits per window for each key.
func New(client redis.UniversalClient, prefix string, limit int, window time.Duration) (*Limiter, error) {
	if client == nil {
		return nil, oops.Code("RATELIMIT_INVALID").Errorf("redis client is required")
	}
	if limit <= 0 || window <= 0 {
		return nil, oops.Code("RATELIMIT_INVALID").
			With("limit", limit).
			With("window", window.String()).
			Errorf("limit and window must be positive")
	}
	return &Limiter{client: client, prefix: prefix, limit: limit, window: window}, nil
}

// Allow records a hit for key in bucket and reports whether it fits the
// budget.
func (l *Limiter) Allow(ctx context.Context, bucket, key string) (Decision, error) {
	redisKey := l.key(bucket, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, oops.Code(CodeUnavailable).With("bucket", bucket).Wrap(err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, oops.Code(CodeUnavailable).With("bucket", bucket).Wrap(err)
		}
	}

	if count <= int64(l.limit) {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - int(count)}, nil
	}

	retry, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil || retry < 0 {
		retry = l.window
	}
	return Decision{Limit: l.limit, RetryAfter: retry}, nil
}

// Reset clears the counter for key in bucket.
func (l *Limiter) Reset(ctx context.Context, bucket, key string) error {
	if err := l.client.Del(ctx, l.key(bucket, key)).Err(); err != nil {
		return oops.Code(CodeUnavailable).With("bucket", bucket).Wrap(err)
	}
	return nil
}

func (l *Limiter) key(bucket, key string) string {
	return l.prefix + ":ratelimit:" + bucket + ":" + key
}
