// Package sink delivers report batches and alerts to the ingestion
// endpoint, or to the log when no endpoint is configured.
package sink

import (
	"context"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// Sink ships batches and alerts. Implementations must be safe for
// concurrent use.
type Sink interface {
	// SendBatch delivers a batch of reports. An error means the whole
	// batch must be retried later.
	SendBatch(ctx context.Context, batch *domain.Batch) error

	// SendAlert delivers a threshold alert. Best effort; callers do
	// not retry alert delivery.
	SendAlert(ctx context.Context, alert *domain.Alert) error
}
