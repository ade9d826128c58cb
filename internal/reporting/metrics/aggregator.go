// Package metrics maintains running counters for the pipeline and
// mirrors them into Prometheus.
package metrics

import (
	"hash/fnv"
	"sync"

	"github.com/samber/lo"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// Aggregator keeps process-wide error counters. All counters are
// monotonically non-decreasing except the recovery rate, which is
// recomputed on every update.
type Aggregator struct {
	mu            sync.RWMutex
	totalErrors   int64
	retryAttempts int64
	recoveryRate  float64
	seen          map[uint64]struct{}
	byCategory    map[domain.Category]int64
	byComponent   map[string]int64
}

// NewAggregator creates an aggregator with all counters at zero.
func NewAggregator() *Aggregator {
	return &Aggregator{
		seen:        make(map[uint64]struct{}),
		byCategory:  make(map[domain.Category]int64),
		byComponent: make(map[string]int64),
	}
}

// Update folds one report into the counters. Category and component
// default to "unknown" when the report carries neither.
func (a *Aggregator) Update(r *domain.Report) {
	category := r.Category()
	component := r.Component()
	attempt := r.Attempt()

	a.mu.Lock()
	a.totalErrors++
	a.seen[fingerprint(r)] = struct{}{}
	a.byCategory[category]++
	a.byComponent[component]++
	if attempt > 0 {
		a.retryAttempts++
	}
	if a.retryAttempts > 0 {
		a.recoveryRate = float64(a.retryAttempts-a.totalErrors) / float64(a.retryAttempts)
	} else {
		a.recoveryRate = 0
	}
	a.mu.Unlock()

	ReportsTotal.WithLabelValues(string(category), component).Inc()
	if attempt > 0 {
		RetryAttemptsTotal.Inc()
	}
}

// Snapshot returns a deep copy of the current counters, never a live
// reference.
func (a *Aggregator) Snapshot() domain.MetricsSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return domain.MetricsSnapshot{
		TotalErrors:       a.totalErrors,
		UniqueErrors:      int64(len(a.seen)),
		ErrorsByCategory:  lo.Assign(a.byCategory),
		ErrorsByComponent: lo.Assign(a.byComponent),
		RetryAttempts:     a.retryAttempts,
		RecoveryRate:      a.recoveryRate,
	}
}

// fingerprint dedupes reports by message and stack for the unique
// error counter.
func fingerprint(r *domain.Report) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(r.Message))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(r.Stack))
	return h.Sum64()
}
