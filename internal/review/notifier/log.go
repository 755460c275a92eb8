package notifier

import (
	"context"
	"log/slog"

	"abportal/internal/review"
	"abportal/pkg/requestcontext"
)

// Log writes each notification as a structured log line.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n review.Notification) error {
	l.logger.InfoContext(ctx, "review decision applied",
		"request_id", requestcontext.RequestID(ctx),
		"certificate_id", n.CertificateID,
		"decision", n.Decision,
		"kind", n.Kind,
		"session_id", n.SessionID,
	)
	return nil
}
