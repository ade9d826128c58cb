package queue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hawkly/errwatch/internal/core/domain"
	"github.com/hawkly/errwatch/internal/infra/spill"
	"github.com/hawkly/errwatch/internal/reporting/metrics"
)

type fakeSink struct {
	mu      sync.Mutex
	fail    bool
	batches chan *domain.Batch
}

func newFakeSink() *fakeSink {
	return &fakeSink{batches: make(chan *domain.Batch, 16)}
}

func (s *fakeSink) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *fakeSink) SendBatch(ctx context.Context, batch *domain.Batch) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errors.New("ingest unreachable")
	}
	s.batches <- batch
	return nil
}

func (s *fakeSink) SendAlert(ctx context.Context, alert *domain.Alert) error {
	return nil
}

func (s *fakeSink) waitBatch(t *testing.T) *domain.Batch {
	t.Helper()
	select {
	case b := <-s.batches:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
		return nil
	}
}

func testReport(i int) *domain.Report {
	return &domain.Report{
		Message:   fmt.Sprintf("error %d", i),
		URL:       "svc://test",
		UserAgent: "test-agent",
		Timestamp: time.Date(2026, 3, 1, 12, 0, i, 0, time.UTC),
	}
}

func TestQueue_SizeThresholdFlush(t *testing.T) {
	s := newFakeSink()
	q := New(Config{BatchSize: 10, FlushInterval: time.Hour}, s, nil, nil, metrics.NewAggregator(), nil)

	for i := 0; i < 10; i++ {
		q.Enqueue(testReport(i))
	}

	batch := s.waitBatch(t)
	if len(batch.Errors) != 10 {
		t.Errorf("batch size = %d, want 10", len(batch.Errors))
	}
	for i, r := range batch.Errors {
		if r.Message != fmt.Sprintf("error %d", i) {
			t.Errorf("batch[%d] = %q, FIFO order broken", i, r.Message)
		}
	}

	waitDepth(t, q, 0)
	if q.SessionID() == "" || batch.SessionID != q.SessionID() {
		t.Errorf("batch SessionID = %q, want %q", batch.SessionID, q.SessionID())
	}
}

func TestQueue_RequeuePreservesOrder(t *testing.T) {
	s := newFakeSink()
	s.setFail(true)
	q := New(Config{BatchSize: 3, FlushInterval: time.Hour}, s, nil, nil, nil, nil)

	for i := 0; i < 5; i++ {
		q.mu.Lock()
		q.pending = append(q.pending, testReport(i))
		q.mu.Unlock()
	}

	q.Flush(context.Background())
	if got := q.Depth(); got != 5 {
		t.Fatalf("Depth after failed flush = %d, want 5", got)
	}

	s.setFail(false)
	q.Flush(context.Background())
	batch := s.waitBatch(t)
	if len(batch.Errors) != 3 || batch.Errors[0].Message != "error 0" {
		t.Errorf("first retry batch = %v", messages(batch))
	}

	q.Flush(context.Background())
	batch = s.waitBatch(t)
	if len(batch.Errors) != 2 || batch.Errors[0].Message != "error 3" {
		t.Errorf("second batch = %v", messages(batch))
	}
}

func TestQueue_OfflineSpillAndReplay(t *testing.T) {
	dir := t.TempDir()
	store := spill.NewFileStore(filepath.Join(dir, "queue.json"))
	s := newFakeSink()

	var mu sync.Mutex
	online := true
	isOnline := func() bool { mu.Lock(); defer mu.Unlock(); return online }
	setOnline := func(v bool) { mu.Lock(); online = v; mu.Unlock() }

	q := New(Config{BatchSize: 10, FlushInterval: time.Hour}, s, store, isOnline, nil, nil)

	setOnline(false)
	q.HandleConnectivity(false)
	q.Enqueue(testReport(0))
	q.Enqueue(testReport(1))

	stored, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("spill store holds %d reports, want 2", len(stored))
	}

	setOnline(true)
	q.HandleConnectivity(true)

	batch := s.waitBatch(t)
	if len(batch.Errors) != 2 {
		t.Errorf("replayed batch size = %d, want 2 (no duplication)", len(batch.Errors))
	}

	stored, err = store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stored != nil {
		t.Errorf("spill store not cleared after reconnect: %d reports", len(stored))
	}
}

func TestQueue_ReplayAfterRestart(t *testing.T) {
	dir := t.TempDir()
	store := spill.NewFileStore(filepath.Join(dir, "queue.json"))
	ctx := context.Background()

	if err := store.Save(ctx, []*domain.Report{testReport(0), testReport(1)}); err != nil {
		t.Fatal(err)
	}

	// Fresh queue, empty memory: everything spilled must come back.
	s := newFakeSink()
	q := New(Config{BatchSize: 10, FlushInterval: time.Hour}, s, store, nil, nil, nil)
	q.HandleConnectivity(true)

	batch := s.waitBatch(t)
	if len(batch.Errors) != 2 || batch.Errors[0].Message != "error 0" {
		t.Errorf("restart replay batch = %v", messages(batch))
	}
}

func TestQueue_TimerFlush(t *testing.T) {
	s := newFakeSink()
	q := New(Config{BatchSize: 100, FlushInterval: 20 * time.Millisecond}, s, nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(testReport(0))

	batch := s.waitBatch(t)
	if len(batch.Errors) != 1 {
		t.Errorf("batch size = %d, want 1", len(batch.Errors))
	}
}

func waitDepth(t *testing.T, q *Queue, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.Depth() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Depth = %d, want %d", q.Depth(), want)
}

func messages(b *domain.Batch) []string {
	var out []string
	for _, r := range b.Errors {
		out = append(out, r.Message)
	}
	return out
}
