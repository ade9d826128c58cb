package alert

import (
	"context"
	"testing"
	"time"

	"github.com/hawkly/errwatch/internal/core/domain"
	"github.com/hawkly/errwatch/internal/reporting/metrics"
)

type captureSink struct {
	alerts chan *domain.Alert
}

func newCaptureSink() *captureSink {
	return &captureSink{alerts: make(chan *domain.Alert, 10)}
}

func (s *captureSink) SendBatch(ctx context.Context, batch *domain.Batch) error {
	return nil
}

func (s *captureSink) SendAlert(ctx context.Context, alert *domain.Alert) error {
	s.alerts <- alert
	return nil
}

func (s *captureSink) waitAlert(t *testing.T) *domain.Alert {
	t.Helper()
	select {
	case a := <-s.alerts:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("no alert delivered")
		return nil
	}
}

func (s *captureSink) expectNone(t *testing.T) {
	t.Helper()
	select {
	case a := <-s.alerts:
		t.Fatalf("unexpected alert: %+v", a)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAlerter_ThresholdWithinWindow(t *testing.T) {
	s := newCaptureSink()
	a := New(Config{Threshold: 10, Window: 60 * time.Second}, s, metrics.NewAggregator(), nil)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }

	for i := 0; i < 10; i++ {
		clock = clock.Add(time.Second)
		a.Record()
	}

	alert := s.waitAlert(t)
	if alert.Type != domain.AlertTypeHighErrorRate {
		t.Errorf("Type = %q", alert.Type)
	}
	s.expectNone(t) // exactly one alert

	// Counter restarted: nine more errors stay below the threshold.
	for i := 0; i < 9; i++ {
		clock = clock.Add(time.Second)
		a.Record()
	}
	s.expectNone(t)
}

func TestAlerter_GapResetsCounter(t *testing.T) {
	s := newCaptureSink()
	a := New(Config{Threshold: 10, Window: 60 * time.Second}, s, metrics.NewAggregator(), nil)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }

	// Five errors, then a gap exceeding the window, then five more:
	// ten in total but never ten inside one window.
	for i := 0; i < 5; i++ {
		clock = clock.Add(time.Second)
		a.Record()
	}
	clock = clock.Add(2 * time.Minute)
	for i := 0; i < 5; i++ {
		clock = clock.Add(time.Second)
		a.Record()
	}

	s.expectNone(t)
}

func TestAlerter_AlertCarriesMetricsSnapshot(t *testing.T) {
	s := newCaptureSink()
	agg := metrics.NewAggregator()
	agg.Update(&domain.Report{Message: "seed"})

	a := New(Config{Threshold: 2, Window: time.Minute}, s, agg, nil)
	a.Record()
	a.Record()

	alert := s.waitAlert(t)
	if alert.Metrics.TotalErrors != 1 {
		t.Errorf("snapshot TotalErrors = %d, want 1", alert.Metrics.TotalErrors)
	}
}
