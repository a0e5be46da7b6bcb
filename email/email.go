// Package email defines the outbound mail contract used to deliver 2FA
// codes, plus the SES-backed production implementation.
package email

import (
	"context"
	"log/slog"

	"github.com/gskelton/gatehouse/auth"
)

// Sender delivers a message to a single recipient. Implementations must
// not log the body: it may contain a 2FA code.
type Sender interface {
	Send(ctx context.Context, to auth.Email, subject, body string) error
}

// LogSender records that a message would have been sent without
// delivering it. For development and tests without SES credentials.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "email")}
}

func (s *LogSender) Send(ctx context.Context, to auth.Email, subject, body string) error {
	s.logger.InfoContext(ctx, "email suppressed",
		"recipient", to.String(),
		"subject", subject,
	)
	return nil
}
