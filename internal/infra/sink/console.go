package sink

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// ConsoleSink logs batches and alerts instead of shipping them. It is
// the explicit degraded sink used when no ingestion endpoint is
// configured, not silent data loss.
type ConsoleSink struct {
	log *slog.Logger
}

// NewConsoleSink creates a log-backed sink.
func NewConsoleSink(log *slog.Logger) *ConsoleSink {
	if log == nil {
		log = slog.Default()
	}
	return &ConsoleSink{log: log}
}

func (s *ConsoleSink) SendBatch(ctx context.Context, batch *domain.Batch) error {
	messages := lo.Map(batch.Errors, func(r *domain.Report, _ int) string {
		return r.Message
	})
	s.log.Info("Error batch (no ingest endpoint configured)",
		"count", len(batch.Errors),
		"session", batch.SessionID,
		"environment", batch.Environment,
		"messages", messages,
	)
	return nil
}

func (s *ConsoleSink) SendAlert(ctx context.Context, alert *domain.Alert) error {
	s.log.Warn("Alert (no ingest endpoint configured)",
		"type", alert.Type,
		"message", alert.Message,
		"totalErrors", alert.Metrics.TotalErrors,
	)
	return nil
}
