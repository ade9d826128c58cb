package spill

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// FileStore keeps the pending queue as a JSON array in a single file.
// Default store for standalone deployments.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save replaces the stored queue. The write goes through a temp file
// and rename so a crash mid-write never leaves a half-written queue.
func (s *FileStore) Save(ctx context.Context, reports []*domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal spill queue: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write spill file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace spill file: %w", err)
	}
	return nil
}

// Load returns the stored queue, or nil when nothing was spilled.
func (s *FileStore) Load(ctx context.Context) ([]*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spill file: %w", err)
	}

	var reports []*domain.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to parse spill file: %w", err)
	}
	return reports, nil
}

// Clear removes the stored queue.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove spill file: %w", err)
	}
	return nil
}
