package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/hawkly/errwatch/internal/core/domain"
)

type fakeSource struct {
	online bool
	depth  int
}

func (f *fakeSource) Online() bool     { return f.online }
func (f *fakeSource) QueueDepth() int  { return f.depth }
func (f *fakeSource) Snapshot() domain.MetricsSnapshot {
	return domain.MetricsSnapshot{TotalErrors: 7}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		source     *fakeSource
		wantCode   int
		wantStatus string
	}{
		{"online empty queue", &fakeSource{online: true}, 200, "healthy"},
		{"online with backlog", &fakeSource{online: true, depth: 5}, 200, "healthy"},
		{"offline with backlog", &fakeSource{online: false, depth: 5}, 503, "degraded"},
		{"offline empty queue", &fakeSource{online: false}, 200, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(tt.source, 0)
			rec := httptest.NewRecorder()
			s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestHandleDetailed(t *testing.T) {
	s := NewServer(&fakeSource{online: true, depth: 3}, 0)
	rec := httptest.NewRecorder()
	s.handleDetailed(rec, httptest.NewRequest("GET", "/health/detailed", nil))

	var detail struct {
		Status     string                 `json:"status"`
		Online     bool                   `json:"online"`
		QueueDepth int                    `json:"queueDepth"`
		Metrics    domain.MetricsSnapshot `json:"metrics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if !detail.Online || detail.QueueDepth != 3 || detail.Metrics.TotalErrors != 7 {
		t.Errorf("detail = %+v", detail)
	}
}
