// Package control wires the error-reporting pipeline together and
// manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/hawkly/errwatch/internal/classify"
	"github.com/hawkly/errwatch/internal/core/config"
	"github.com/hawkly/errwatch/internal/core/domain"
	"github.com/hawkly/errwatch/internal/infra/archive"
	"github.com/hawkly/errwatch/internal/infra/connectivity"
	"github.com/hawkly/errwatch/internal/infra/sink"
	"github.com/hawkly/errwatch/internal/infra/spill"
	"github.com/hawkly/errwatch/internal/notify"
	"github.com/hawkly/errwatch/internal/report"
	"github.com/hawkly/errwatch/internal/reporting/alert"
	"github.com/hawkly/errwatch/internal/reporting/health"
	"github.com/hawkly/errwatch/internal/reporting/metrics"
	"github.com/hawkly/errwatch/internal/reporting/queue"
	"github.com/hawkly/errwatch/internal/retry"
)

// Config holds the pipeline configuration.
type Config struct {
	Port         int
	App          config.AppInfo
	Ingest       sink.Config
	Queue        queue.Config
	Alerts       alert.Config
	Retry        config.RetryConfig
	Spill        config.SpillConfig
	Connectivity config.ConnectivityConfig
	Database     archive.Config
	SupportURL   string
}

// FromAppConfig maps the loaded YAML configuration onto the pipeline
// config.
func FromAppConfig(cfg *config.AppConfig) Config {
	queueCfg := cfg.Queue
	queueCfg.AppVersion = cfg.App.Version
	queueCfg.Environment = cfg.App.Environment

	return Config{
		Port:         cfg.Server.Port,
		App:          cfg.App,
		Ingest:       cfg.Ingest,
		Queue:        queueCfg,
		Alerts:       cfg.Alerts,
		Retry:        cfg.Retry,
		Spill:        cfg.Spill,
		Connectivity: cfg.Connectivity,
		Database:     cfg.Database,
		SupportURL:   cfg.Support.URL,
	}
}

// Pipeline is the assembled error-reporting pipeline: normalizer,
// categorizer, batch queue, threshold alerter, metrics aggregator and
// retry coordinator behind one entry point.
type Pipeline struct {
	cfg          Config
	normalizer   *report.Normalizer
	agg          *metrics.Aggregator
	queue        *queue.Queue
	alerter      *alert.Alerter
	checker      *connectivity.Checker
	coordinator  *retry.Coordinator
	healthServer *health.Server
	db           *archive.DB
	redisSpill   *spill.RedisStore
	log          *slog.Logger
}

// NewPipeline creates a pipeline with all dependencies initialized.
func NewPipeline(cfg Config) (*Pipeline, error) {
	log := slog.Default()

	// 1. Delivery sink: remote ingestion endpoint, or the console
	// fallback when none is configured.
	var shipper sink.Sink
	if cfg.Ingest.URL != "" {
		shipper = sink.NewHTTPSink(cfg.Ingest)
		log.Info("Using HTTP ingest sink", "url", cfg.Ingest.URL)
	} else {
		shipper = sink.NewConsoleSink(log)
		log.Warn("No ingest endpoint configured, batches go to the log")
	}

	// 2. Offline spill store
	var store spill.Store
	var redisStore *spill.RedisStore
	switch cfg.Spill.Mode {
	case config.SpillModeRedis:
		var err error
		redisStore, err = spill.NewRedisStore(cfg.Spill.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis spill store: %w", err)
		}
		store = redisStore
		log.Info("Using Redis spill store")
	case config.SpillModeNone:
		log.Info("Offline spill disabled")
	default:
		store = spill.NewFileStore(cfg.Spill.Path)
		log.Info("Using file spill store", "path", cfg.Spill.Path)
	}

	// 3. Shared components
	agg := metrics.NewAggregator()
	normalizer := report.NewNormalizer(cfg.App.Origin, cfg.App.Version)

	// 4. Connectivity checker
	checker := connectivity.New(cfg.Connectivity.ProbeURL, cfg.Connectivity.Interval, log)

	// 5. Batch queue, reacting to connectivity transitions
	q := queue.New(cfg.Queue, shipper, store, checker.Online, agg, log)
	checker.Subscribe(q.HandleConnectivity)

	// 6. Threshold alerter
	alerter := alert.New(cfg.Alerts, shipper, agg, log)

	// 7. Optional Postgres archive
	var db *archive.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = archive.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init archive db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate archive db: %w", err)
		}
		q.SetArchiver(archive.NewReportRepo(db))
		log.Info("Archiving delivered reports to PostgreSQL")
	}

	p := &Pipeline{
		cfg:        cfg,
		normalizer: normalizer,
		agg:        agg,
		queue:      q,
		alerter:    alerter,
		checker:    checker,
		db:         db,
		redisSpill: redisStore,
		log:        log,
	}

	// 8. Retry coordinator reporting into the pipeline
	notifier := notify.NewLogNotifier(log, cfg.SupportURL)
	p.coordinator = retry.New(p, notifier, checker.Online, log)

	// 9. Health server
	p.healthServer = health.NewServer(p, cfg.Port)

	return p, nil
}

// Report pushes one failure through the pipeline: normalize, tag,
// aggregate, buffer, and feed the threshold alerter.
func (p *Pipeline) Report(ctx context.Context, v any, additional map[string]any) {
	rep := p.normalizer.Normalize(v)

	if rep.Additional == nil {
		rep.Additional = make(map[string]any, len(additional)+1)
	}
	for k, val := range additional {
		rep.Additional[k] = val
	}
	if _, ok := rep.Additional[domain.KeyCategory]; !ok {
		if err, isErr := v.(error); isErr {
			rep.Additional[domain.KeyCategory] = string(classify.Categorize(err, p.checker.Online()))
		}
	}

	p.agg.Update(rep)
	p.queue.Enqueue(rep)
	p.alerter.Record()
}

// Do wraps a fallible operation with the pipeline's retry
// coordinator. Zero-valued config fields fall back to the configured
// retry defaults.
func (p *Pipeline) Do(ctx context.Context, cfg retry.Config, op retry.Operation) (any, error) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = p.cfg.Retry.MaxRetries
	}
	if len(cfg.Delays) == 0 {
		cfg.Delays = p.cfg.Retry.Delays
	}
	return p.coordinator.Do(ctx, cfg, op)
}

// Flush forces an immediate queue flush.
func (p *Pipeline) Flush(ctx context.Context) {
	p.queue.Flush(ctx)
}

// Online implements health.Source.
func (p *Pipeline) Online() bool {
	return p.checker.Online()
}

// QueueDepth implements health.Source.
func (p *Pipeline) QueueDepth() int {
	return p.queue.Depth()
}

// Snapshot implements health.Source.
func (p *Pipeline) Snapshot() domain.MetricsSnapshot {
	return p.agg.Snapshot()
}

// Start starts the pipeline and all its background loops.
func (p *Pipeline) Start(ctx context.Context) error {
	go func() {
		if err := p.healthServer.Start(); err != nil {
			p.log.Error("Health server failed", "error", err)
		}
	}()

	go p.checker.Run(ctx)
	go p.queue.Run(ctx)
	go p.alerter.Run(ctx)

	if p.db != nil {
		p.db.StartMetricsCollector(ctx)
	}

	p.log.Info("Pipeline started",
		"app", p.cfg.App.Name,
		"environment", p.cfg.App.Environment,
		"session", p.queue.SessionID(),
	)
	return nil
}

// Stop drains the queue and shuts the pipeline down.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.log.Info("Stopping pipeline...")

	p.queue.Flush(ctx)

	if p.redisSpill != nil {
		if err := p.redisSpill.Close(); err != nil {
			p.log.Warn("Failed to close Redis spill store", "error", err)
		}
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.log.Warn("Failed to close archive db", "error", err)
		}
	}

	return p.healthServer.Stop(ctx)
}
