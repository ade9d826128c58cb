// Package report builds canonical error reports from heterogeneous
// failure inputs.
package report

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// Normalizer converts errors and partially-filled reports into the
// canonical report shape. It is a pure transformation with no side
// effects.
type Normalizer struct {
	origin  string
	version string
	now     func() time.Time
}

// NewNormalizer creates a normalizer. origin identifies where reports
// come from (service URL or instance name); version is the application
// version embedded in the user agent.
func NewNormalizer(origin, version string) *Normalizer {
	return &Normalizer{
		origin:  origin,
		version: version,
		now:     time.Now,
	}
}

// Normalize produces a canonical report from either a structured
// report or an error value. A report that already carries url,
// userAgent and timestamp is treated as pre-normalized and passed
// through unchanged; anything else is synthesized in place.
func (n *Normalizer) Normalize(v any) *domain.Report {
	switch input := v.(type) {
	case *domain.Report:
		if input.Normalized() {
			return input
		}
		return n.fill(input)
	case domain.Report:
		if input.Normalized() {
			return &input
		}
		return n.fill(&input)
	case error:
		return n.fill(&domain.Report{
			Message: input.Error(),
			Stack:   string(debug.Stack()),
		})
	default:
		return n.fill(&domain.Report{
			Message: fmt.Sprint(v),
			Stack:   string(debug.Stack()),
		})
	}
}

func (n *Normalizer) fill(r *domain.Report) *domain.Report {
	if r.URL == "" {
		r.URL = n.origin
	}
	if r.UserAgent == "" {
		r.UserAgent = n.userAgent()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = n.now()
	}
	return r
}

func (n *Normalizer) userAgent() string {
	return fmt.Sprintf("errwatch/%s (%s/%s) %s",
		n.version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}
