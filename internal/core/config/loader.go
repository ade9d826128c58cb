package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Queue.BatchSize == 0 {
		cfg.Queue.BatchSize = 10
	}
	if cfg.Queue.FlushInterval == 0 {
		cfg.Queue.FlushInterval = 5 * time.Second
	}
	if cfg.Alerts.Threshold == 0 {
		cfg.Alerts.Threshold = 10
	}
	if cfg.Alerts.Window == 0 {
		cfg.Alerts.Window = 60 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if len(cfg.Retry.Delays) == 0 {
		cfg.Retry.Delays = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}
	}
	if cfg.Spill.Mode == "" {
		cfg.Spill.Mode = SpillModeFile
	}
	if cfg.Spill.Path == "" {
		cfg.Spill.Path = "errwatch_queue.json"
	}
	if cfg.Connectivity.Interval == 0 {
		cfg.Connectivity.Interval = 15 * time.Second
	}
	if cfg.Connectivity.ProbeURL == "" {
		cfg.Connectivity.ProbeURL = cfg.Ingest.URL
	}
	if cfg.Support.URL == "" {
		cfg.Support.URL = "/support"
	}
}
