package spill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hawkly/errwatch/internal/core/domain"
)

// DefaultKey is the Redis key holding the spilled queue.
const DefaultKey = "errwatch:queue"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

// RedisStore keeps the pending queue as a Redis list, one JSON report
// per element, oldest first. Used when several agent instances share
// a spill location.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

// Save replaces the stored queue atomically via a transaction
// pipeline.
func (s *RedisStore) Save(ctx context.Context, reports []*domain.Report) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	for _, r := range reports {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		pipe.RPush(ctx, s.key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save spill queue: %w", err)
	}
	return nil
}

// Load returns the stored queue in insertion order.
func (s *RedisStore) Load(ctx context.Context) ([]*domain.Report, error) {
	items, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read spill queue: %w", err)
	}

	reports := make([]*domain.Report, 0, len(items))
	for _, item := range items {
		var r domain.Report
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("failed to parse spilled report: %w", err)
		}
		reports = append(reports, &r)
	}
	return reports, nil
}

// Clear removes the stored queue.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear spill queue: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
