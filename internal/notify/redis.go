// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/authflow/authflow/internal/auth"
)

// RedisStream appends notifications to a redis stream for a mail worker to
// deliver. Each entry has the fields kind, to and, depending on kind, code,
// name or url.
type RedisStream struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

var _ auth.Notifier = (*RedisStream)(nil)

// DefaultStreamMaxLen caps the stream so an absent worker cannot grow it
// without bound. Trimming is approximate.
const DefaultStreamMaxLen = 100_000

// NewRedisStream creates a RedisStream writing to stream.
func NewRedisStream(client redis.UniversalClient, stream string) (*RedisStream, error) {
	if client == nil {
		return nil, oops.Code("NOTIFY_INVALID").Errorf("redis client is required")
	}
	if stream == "" {
		return nil, oops.Code("NOTIFY_INVALID").Errorf("stream name is required")
	}
	return &RedisStream{client: client, stream: stream, maxLen: DefaultStreamMaxLen}, nil
}

// SendVerification queues the verification code for email.
func (r *RedisStream) SendVerification(ctx context.Context, email, code string) error {
	return r.add(ctx, KindVerification, email, "code", code)
}

// SendWelcome queues a welcome message for email.
func (r *RedisStream) SendWelcome(ctx context.Context, email, name string) error {
	return r.add(ctx, KindWelcome, email, "name", name)
}

// SendResetRequest queues the reset link for email.
func (r *RedisStream) SendResetRequest(ctx context.Context, email, resetURL string) error {
	return r.add(ctx, KindResetRequest, email, "url", resetURL)
}

// SendResetSuccess queues a reset confirmation for email.
func (r *RedisStream) SendResetSuccess(ctx context.Context, email string) error {
	return r.add(ctx, KindResetSuccess, email)
}

func (r *RedisStream) add(ctx context.Context, kind, email string, extra ...string) error {
	values := []string{"kind", kind, "to", email}
	values = append(values, extra...)

	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return oops.Code("NOTIFY_UNAVAILABLE").
			With("stream", r.stream).
			With("kind", kind).
			Wrap(err)
	}
	return nil
}
