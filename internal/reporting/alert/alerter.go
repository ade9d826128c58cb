// Package alert raises a high-error-rate signal when too many errors
// arrive within a rolling time window.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hawkly/errwatch/internal/core/domain"
	"github.com/hawkly/errwatch/internal/infra/sink"
	"github.com/hawkly/errwatch/internal/reporting/metrics"
)

// Config defines the alerting threshold.
type Config struct {
	Threshold int           `yaml:"threshold"`
	Window    time.Duration `yaml:"window"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Threshold: 10,
	Window:    60 * time.Second,
}

// Alerter counts errors in a rolling window. A gap longer than the
// window resets the counter before counting; hitting the threshold
// emits exactly one alert and starts over.
type Alerter struct {
	cfg     Config
	sink    sink.Sink
	agg     *metrics.Aggregator
	log     *slog.Logger
	now     func() time.Time
	timeout time.Duration

	mu    sync.Mutex
	count int
	last  time.Time
}

// New creates an alerter delivering through the given sink.
func New(cfg Config, s sink.Sink, agg *metrics.Aggregator, log *slog.Logger) *Alerter {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultConfig.Threshold
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultConfig.Window
	}
	if log == nil {
		log = slog.Default()
	}
	return &Alerter{
		cfg:     cfg,
		sink:    s,
		agg:     agg,
		log:     log,
		now:     time.Now,
		timeout: 10 * time.Second,
	}
}

// Record counts one error occurrence and emits an alert when the
// threshold is reached within the window.
func (a *Alerter) Record() {
	now := a.now()

	a.mu.Lock()
	if !a.last.IsZero() && now.Sub(a.last) > a.cfg.Window {
		a.count = 0
	}
	a.count++
	a.last = now

	fire := a.count >= a.cfg.Threshold
	if fire {
		a.count = 0
	}
	a.mu.Unlock()

	if fire {
		a.emit(now)
	}
}

// Run resets the counter every window interval, a safety net for
// bursts that stop abruptly without a terminating reset.
func (a *Alerter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			a.count = 0
			a.mu.Unlock()
		}
	}
}

// emit delivers the alert fire-and-forget. A delivery failure is
// logged, never retried.
func (a *Alerter) emit(now time.Time) {
	alert := &domain.Alert{
		Type:      domain.AlertTypeHighErrorRate,
		Message:   fmt.Sprintf("High error rate: %d errors within %s", a.cfg.Threshold, a.cfg.Window),
		Timestamp: now,
		Metrics:   a.agg.Snapshot(),
	}

	metrics.AlertsTotal.Inc()
	a.log.Warn("High error rate detected",
		"threshold", a.cfg.Threshold,
		"window", a.cfg.Window.String(),
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.sink.SendAlert(ctx, alert); err != nil {
			a.log.Warn("Alert delivery failed", "error", err)
		}
	}()
}
