// Package health exposes HTTP endpoints for monitoring the pipeline
// itself.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// Status is the aggregate pipeline health.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// Source provides the pipeline state the server reports on.
type Source interface {
	Online() bool
	QueueDepth() int
	Snapshot() domain.MetricsSnapshot
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	source Source
	server *http.Server
}

// NewServer creates a new health server.
func NewServer(source Source, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		source: source,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) status() Status {
	// Offline with a backlog means reports are piling up.
	if !s.source.Online() && s.source.QueueDepth() > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.status()

	w.Header().Set("Content-Type", "application/json")
	if status == StatusDegraded {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	detail := struct {
		Status     Status                 `json:"status"`
		Online     bool                   `json:"online"`
		QueueDepth int                    `json:"queueDepth"`
		Metrics    domain.MetricsSnapshot `json:"metrics"`
	}{
		Status:     s.status(),
		Online:     s.source.Online(),
		QueueDepth: s.source.QueueDepth(),
		Metrics:    s.source.Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}
