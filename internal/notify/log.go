// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package notify

import (
	"context"
	"log/slog"

	"github.com/authflow/authflow/internal/auth"
)

// LogNotifier writes one log record per notification. It is meant for local
// development; the record names the recipient and the kind but never the
// code or link.
type LogNotifier struct {
	logger *slog.Logger
}

var _ auth.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// SendVerification logs a verification notification.
func (n *LogNotifier) SendVerification(ctx context.Context, email, _ string) error {
	n.log(ctx, KindVerification, email)
	return nil
}

// SendWelcome logs a welcome notification.
func (n *LogNotifier) SendWelcome(ctx context.Context, email, _ string) error {
	n.log(ctx, KindWelcome, email)
	return nil
}

// SendResetRequest logs a reset request notification.
func (n *LogNotifier) SendResetRequest(ctx context.Context, email, _ string) error {
	n.log(ctx, KindResetRequest, email)
	return nil
}

// SendResetSuccess logs a reset success notification.
func (n *LogNotifier) SendResetSuccess(ctx context.Context, email string) error {
	n.log(ctx, KindResetSuccess, email)
	return nil
}

func (n *LogNotifier) log(ctx context.Context, kind, email string) {
	n.logger.InfoContext(ctx, "notification sent", "kind", kind, "to", email)
}
