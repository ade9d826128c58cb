// Package queue buffers normalized reports and ships them in bounded
// batches to the ingestion sink, spilling to durable storage while
// the endpoint is unreachable.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hawkly/errwatch/internal/core/domain"
	"github.com/hawkly/errwatch/internal/infra/sink"
	"github.com/hawkly/errwatch/internal/infra/spill"
	"github.com/hawkly/errwatch/internal/reporting/metrics"
)

// Config defines batching behavior and the environment metadata
// attached to every batch.
type Config struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	AppVersion    string        `yaml:"-"`
	Environment   string        `yaml:"-"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	BatchSize:     10,
	FlushInterval: 5 * time.Second,
}

// Archiver persists delivered batches for local inspection. Optional;
// failures are logged, never block delivery.
type Archiver interface {
	SaveBatch(ctx context.Context, reports []*domain.Report, delivered bool) error
}

// Queue is a FIFO buffer of reports. A flush takes up to BatchSize
// oldest reports; a failed delivery re-inserts them at the front so
// order is preserved across retries.
type Queue struct {
	cfg      Config
	sink     sink.Sink
	spill    spill.Store
	online   func() bool
	agg      *metrics.Aggregator
	archiver Archiver
	session  string
	log      *slog.Logger

	mu       sync.Mutex
	pending  []*domain.Report
	flushing atomic.Bool
}

// New creates a queue shipping through s. store may be nil (no
// offline persistence); online reports current connectivity.
func New(cfg Config, s sink.Sink, store spill.Store, online func() bool, agg *metrics.Aggregator, log *slog.Logger) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig.FlushInterval
	}
	if online == nil {
		online = func() bool { return true }
	}
	if log == nil {
		log = slog.Default()
	}
	return &Queue{
		cfg:     cfg,
		sink:    s,
		spill:   store,
		online:  online,
		agg:     agg,
		session: uuid.NewString(),
		log:     log,
	}
}

// SetArchiver attaches an optional archive for delivered batches.
func (q *Queue) SetArchiver(a Archiver) {
	q.archiver = a
}

// SessionID returns the identifier attached to every batch from this
// queue instance.
func (q *Queue) SessionID() string {
	return q.session
}

// Depth returns the number of reports currently buffered.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Enqueue appends a report. Reaching the batch size triggers an
// immediate asynchronous flush; enqueues are never blocked by an
// in-progress flush. While offline the buffer is mirrored to the
// spill store so nothing is lost on a crash.
func (q *Queue) Enqueue(r *domain.Report) {
	q.mu.Lock()
	q.pending = append(q.pending, r)
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))

	if !q.online() {
		q.persist(context.Background())
		return
	}
	if depth >= q.cfg.BatchSize {
		go q.Flush(context.Background())
	}
}

// Run flushes on a fixed interval until ctx is done, then makes one
// final drain attempt.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			q.Flush(drainCtx)
			cancel()
			return
		case <-ticker.C:
			q.Flush(ctx)
		}
	}
}

// Flush ships up to BatchSize oldest reports. A guard prevents
// overlapping flush cycles. On delivery failure the batch goes back
// to the front of the queue and, while offline, the whole buffer is
// persisted.
func (q *Queue) Flush(ctx context.Context) {
	if !q.flushing.CompareAndSwap(false, true) {
		return
	}
	defer q.flushing.Store(false)

	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	n := min(q.cfg.BatchSize, len(q.pending))
	batch := make([]*domain.Report, n)
	copy(batch, q.pending[:n])
	q.pending = append([]*domain.Report(nil), q.pending[n:]...)
	q.mu.Unlock()

	payload := &domain.Batch{
		Errors:      batch,
		AppVersion:  q.cfg.AppVersion,
		Environment: q.cfg.Environment,
		SessionID:   q.session,
		Timestamp:   time.Now(),
	}
	if q.agg != nil {
		payload.Metrics = q.agg.Snapshot()
	}

	err := q.sink.SendBatch(ctx, payload)
	if err != nil {
		q.mu.Lock()
		q.pending = append(batch, q.pending...)
		depth := len(q.pending)
		q.mu.Unlock()

		metrics.BatchSendFailuresTotal.Inc()
		metrics.QueueDepth.Set(float64(depth))
		q.log.Warn("Batch delivery failed, batch re-queued", "count", len(batch), "error", err)

		if !q.online() {
			q.persist(ctx)
		}
		return
	}

	metrics.BatchesSentTotal.Inc()
	metrics.QueueDepth.Set(float64(q.Depth()))
	q.log.Debug("Batch delivered", "count", len(batch))

	if q.archiver != nil {
		if aerr := q.archiver.SaveBatch(ctx, batch, true); aerr != nil {
			q.log.Warn("Failed to archive batch", "error", aerr)
		}
	}
}

// HandleConnectivity reacts to online/offline transitions: going
// offline persists the buffer, coming back online replays spilled
// reports and flushes immediately.
func (q *Queue) HandleConnectivity(online bool) {
	ctx := context.Background()
	if !online {
		q.persist(ctx)
		return
	}
	q.reload(ctx)
	go q.Flush(ctx)
}

// persist mirrors the current buffer to the spill store.
func (q *Queue) persist(ctx context.Context) {
	if q.spill == nil {
		return
	}

	q.mu.Lock()
	snapshot := make([]*domain.Report, len(q.pending))
	copy(snapshot, q.pending)
	q.mu.Unlock()

	if err := q.spill.Save(ctx, snapshot); err != nil {
		q.log.Warn("Failed to persist report queue", "error", err)
		return
	}
	metrics.SpilledReports.Set(float64(len(snapshot)))
	q.log.Info("Report queue persisted", "count", len(snapshot))
}

// reload moves spilled reports back into the live queue and clears
// the store. Reports still present in memory are skipped so an
// uninterrupted process does not double-report; load-then-clear is
// not transactional across a crash.
func (q *Queue) reload(ctx context.Context) {
	if q.spill == nil {
		return
	}

	stored, err := q.spill.Load(ctx)
	if err != nil {
		q.log.Warn("Failed to reload spilled reports", "error", err)
		return
	}
	if err := q.spill.Clear(ctx); err != nil {
		q.log.Warn("Failed to clear spill store", "error", err)
	}
	metrics.SpilledReports.Set(0)
	if len(stored) == 0 {
		return
	}

	q.mu.Lock()
	live := make(map[string]struct{}, len(q.pending))
	for _, r := range q.pending {
		live[reportKey(r)] = struct{}{}
	}
	var replay []*domain.Report
	for _, r := range stored {
		if _, ok := live[reportKey(r)]; !ok {
			replay = append(replay, r)
		}
	}
	q.pending = append(replay, q.pending...)
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	if len(replay) > 0 {
		q.log.Info("Spilled reports re-queued", "count", len(replay))
	}
}

func reportKey(r *domain.Report) string {
	return r.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + r.Message
}
