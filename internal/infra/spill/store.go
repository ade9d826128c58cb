// Package spill persists pending reports while the ingestion endpoint
// is unreachable, so they survive a restart and are replayed on
// reconnect.
package spill

import (
	"context"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// Store holds the serialized pending queue. Save replaces the stored
// set wholesale; Load returns it; Clear removes it.
//
// Load-then-Clear on reconnect is not transactional: a crash between
// the two steps can duplicate or lose reports. Known gap, documented
// rather than papered over.
type Store interface {
	Save(ctx context.Context, reports []*domain.Report) error
	Load(ctx context.Context) ([]*domain.Report, error)
	Clear(ctx context.Context) error
}
