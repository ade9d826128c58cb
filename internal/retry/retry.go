// Package retry executes fallible operations with bounded backoff,
// reporting every failed attempt to the monitoring pipeline and
// surfacing one user-visible notification per invocation.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/hawkly/errwatch/internal/classify"
	"github.com/hawkly/errwatch/internal/core/domain"
	"github.com/hawkly/errwatch/internal/notify"
)

// Operation is an asynchronous, zero-argument, fallible action.
type Operation func(ctx context.Context) (any, error)

// Reporter receives one report per failed attempt. The pipeline's
// normalizer accepts both errors and structured reports, hence the
// loose input type.
type Reporter interface {
	Report(ctx context.Context, v any, additional map[string]any)
}

// Config controls one coordinated invocation. Zero values fall back
// to the coordinator defaults.
type Config struct {
	// MaxRetries bounds retries after the initial attempt. Negative
	// disables retries; zero means "use the default".
	MaxRetries int

	// Delays are per-attempt backoff sleeps; the last value is reused
	// beyond its length.
	Delays []time.Duration

	// ShouldRetry decides retry eligibility for a failure. Defaults
	// to classify.DefaultShouldRetry.
	ShouldRetry func(error) bool

	// Silent suppresses the user-facing notification.
	Silent bool

	// Message and Description override the category default wording.
	Message     string
	Description string

	// HideSupport drops the support action from the notification.
	HideSupport bool

	// OnError is invoked on every failed attempt.
	OnError func(error)

	// Context labels reports from this invocation for traceability.
	Context string

	// OfflineCheck fails fast with category offline before the first
	// attempt when connectivity is down. The pre-flight check does
	// not consume an attempt.
	OfflineCheck bool
}

// DefaultDelays is the default backoff schedule.
var DefaultDelays = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

// DefaultMaxRetries bounds retries when the caller does not say.
const DefaultMaxRetries = 3

// Coordinator wraps operations with retry, categorization, per-attempt
// reporting, and the terminal notification.
type Coordinator struct {
	reporter Reporter
	notifier notify.Notifier
	online   func() bool
	log      *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a coordinator. reporter and notifier may be nil;
// online defaults to always-online.
func New(reporter Reporter, notifier notify.Notifier, online func() bool, log *slog.Logger) *Coordinator {
	if online == nil {
		online = func() bool { return true }
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		reporter: reporter,
		notifier: notifier,
		online:   online,
		log:      log,
		sleep:    sleepCtx,
	}
}

// Do runs op, retrying per cfg. On success the operation's value is
// returned immediately. On terminal failure the error is a
// *domain.Error carrying status, code and category; the raw
// underlying error stays reachable via Unwrap.
func (c *Coordinator) Do(ctx context.Context, cfg Config, op Operation) (any, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	} else if maxRetries < 0 {
		maxRetries = 0
	}
	delays := cfg.Delays
	if len(delays) == 0 {
		delays = DefaultDelays
	}
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = classify.DefaultShouldRetry
	}

	if cfg.OfflineCheck && !c.online() {
		err := domain.NewError(
			"operation unavailable while offline",
			0,
			classify.Code(domain.CategoryOffline),
			domain.CategoryOffline,
			nil,
		)
		c.report(ctx, err, domain.CategoryOffline, 0, cfg.Context)
		c.notifyFailure(cfg, domain.CategoryOffline)
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		category := classify.Categorize(err, c.online())
		c.report(ctx, err, category, attempt, cfg.Context)
		if cfg.OnError != nil {
			cfg.OnError(err)
		}

		if attempt < maxRetries && shouldRetry(err) {
			if serr := c.sleep(ctx, delayFor(attempt, delays)); serr != nil {
				lastErr = serr
				break
			}
			continue
		}
		break
	}

	category := classify.Categorize(lastErr, c.online())
	c.notifyFailure(cfg, category)
	return nil, terminal(lastErr, category)
}

func (c *Coordinator) report(ctx context.Context, err error, category domain.Category, attempt int, label string) {
	if c.reporter == nil {
		return
	}
	additional := map[string]any{
		domain.KeyCategory: string(category),
		domain.KeyAttempt:  attempt,
	}
	if label != "" {
		additional[domain.KeyContext] = label
		additional[domain.KeyComponent] = label
	}
	c.reporter.Report(ctx, err, additional)
}

func (c *Coordinator) notifyFailure(cfg Config, category domain.Category) {
	if cfg.Silent || c.notifier == nil {
		return
	}
	message := cfg.Message
	if message == "" {
		message = defaultMessage(category)
	}
	c.notifier.Notify(notify.Notification{
		Message:     message,
		Description: cfg.Description,
		ShowSupport: !cfg.HideSupport,
	})
}

// terminal wraps the last underlying failure into the structured
// error callers inspect.
func terminal(err error, category domain.Category) *domain.Error {
	if e, ok := domain.AsError(err); ok {
		return e
	}
	return domain.NewError(
		err.Error(),
		classify.StatusOf(err),
		classify.Code(category),
		category,
		err,
	)
}

func delayFor(attempt int, delays []time.Duration) time.Duration {
	if attempt >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempt]
}

func defaultMessage(category domain.Category) string {
	switch category {
	case domain.CategoryNetwork:
		return "Network error. Check your connection and try again."
	case domain.CategoryAuthentication:
		return "Please sign in to continue."
	case domain.CategoryAuthorization:
		return "You don't have permission to perform this action."
	case domain.CategoryValidation:
		return "Please check your input and try again."
	case domain.CategoryNotFound:
		return "The requested resource was not found."
	case domain.CategoryServer:
		return "Something went wrong on our end. Please try again later."
	case domain.CategoryRateLimit:
		return "Too many requests. Please wait a moment and try again."
	case domain.CategoryOffline:
		return "You appear to be offline. Changes will sync when you reconnect."
	}
	return "An unexpected error occurred."
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
