package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hawkly/errwatch/internal/classify"
	"github.com/hawkly/errwatch/internal/core/domain"
)

// Config holds ingestion endpoint settings.
type Config struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	APIKey  string        `yaml:"api_key"`
}

// HTTPSink posts JSON payloads to the remote ingestion endpoint.
// Batches go to the configured URL, alerts to URL + "/alerts".
type HTTPSink struct {
	client *resty.Client
	url    string
}

// NewHTTPSink creates a sink for the given endpoint.
func NewHTTPSink(cfg Config) *HTTPSink {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-API-Key", cfg.APIKey)
	}

	return &HTTPSink{client: client, url: cfg.URL}
}

// SendBatch posts the batch to the ingestion endpoint. No response
// body is consumed beyond success or failure of the call.
func (s *HTTPSink) SendBatch(ctx context.Context, batch *domain.Batch) error {
	return s.post(ctx, s.url, batch)
}

// SendAlert posts the alert to the alerts sub-endpoint.
func (s *HTTPSink) SendAlert(ctx context.Context, alert *domain.Alert) error {
	return s.post(ctx, s.url+"/alerts", alert)
}

func (s *HTTPSink) post(ctx context.Context, url string, body any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		return fmt.Errorf("ingest request failed: %w", err)
	}
	if resp.IsError() {
		e := domain.NewError(
			fmt.Sprintf("ingest endpoint returned %s", resp.Status()),
			resp.StatusCode(),
			"",
			domain.CategoryUnknown,
			nil,
		)
		e.Category = classify.Categorize(e, true)
		e.Code = classify.Code(e.Category)
		return e
	}
	return nil
}
