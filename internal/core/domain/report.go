package domain

import (
	"time"
)

// Category classifies the nature of a failure. The set is closed; it is
// never extended at runtime.
type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryValidation     Category = "validation"
	CategoryNotFound       Category = "not_found"
	CategoryServer         Category = "server"
	CategoryRateLimit      Category = "rate_limit"
	CategoryOffline        Category = "offline"
	CategoryUnknown        Category = "unknown"
)

// Additional keys attached to reports by the pipeline.
const (
	KeyCategory  = "category"
	KeyComponent = "component"
	KeyAttempt   = "attempt"
	KeyContext   = "context"
	KeyEndpoint  = "endpoint"
	KeyMethod    = "method"
)

// Report is the canonical record of one failure occurrence.
// Reports are treated as immutable once enqueued.
type Report struct {
	Message    string         `json:"message"`
	Stack      string         `json:"stack,omitempty"`
	URL        string         `json:"url"`
	UserAgent  string         `json:"userAgent"`
	Timestamp  time.Time      `json:"timestamp"`
	Additional map[string]any `json:"additional,omitempty"`
}

// Normalized reports whether the mandatory fields are populated.
// Every report reaching the batch queue must be normalized.
func (r *Report) Normalized() bool {
	return r.URL != "" && r.UserAgent != "" && !r.Timestamp.IsZero()
}

// Category returns the category tag attached to the report,
// or CategoryUnknown when absent.
func (r *Report) Category() Category {
	if r.Additional == nil {
		return CategoryUnknown
	}
	switch v := r.Additional[KeyCategory].(type) {
	case Category:
		return v
	case string:
		return Category(v)
	}
	return CategoryUnknown
}

// Component returns the component tag attached to the report,
// or "unknown" when absent.
func (r *Report) Component() string {
	if r.Additional != nil {
		if s, ok := r.Additional[KeyComponent].(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// Attempt returns the retry attempt number attached to the report.
// JSON round trips turn ints into float64, so both are accepted.
func (r *Report) Attempt() int {
	if r.Additional == nil {
		return 0
	}
	switch v := r.Additional[KeyAttempt].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Batch is a bounded group of reports shipped together to the
// ingestion endpoint, along with environment metadata.
type Batch struct {
	Errors      []*Report       `json:"errors"`
	AppVersion  string          `json:"appVersion"`
	Environment string          `json:"environment"`
	SessionID   string          `json:"sessionId"`
	Timestamp   time.Time       `json:"timestamp"`
	Metrics     MetricsSnapshot `json:"metrics"`
}

// Alert is the secondary signal raised when error frequency exceeds
// the configured rate.
type Alert struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Metrics   MetricsSnapshot `json:"metrics"`
}

// AlertTypeHighErrorRate is the only alert type currently emitted.
const AlertTypeHighErrorRate = "high_error_rate"
