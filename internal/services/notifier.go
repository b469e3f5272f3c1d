package services

import (
	"context"
	"log/slog"

	"fintrack/internal/ports"
)

// LogNotifier writes notifications to the structured log. It is the
// fallback when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note ports.Notification) error {
	n.logger.InfoContext(ctx, "Notification",
		"kind", note.Kind,
		"title", note.Title,
		"body", note.Body,
		"ref_id", note.RefID)
	return nil
}
