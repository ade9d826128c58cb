package config

import (
	"time"

	"github.com/hawkly/errwatch/internal/infra/archive"
	"github.com/hawkly/errwatch/internal/infra/sink"
	"github.com/hawkly/errwatch/internal/infra/spill"
	"github.com/hawkly/errwatch/internal/reporting/alert"
	"github.com/hawkly/errwatch/internal/reporting/queue"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	App          AppInfo            `yaml:"app"`
	Ingest       sink.Config        `yaml:"ingest"`
	Queue        queue.Config       `yaml:"queue"`
	Alerts       alert.Config       `yaml:"alerts"`
	Retry        RetryConfig        `yaml:"retry"`
	Spill        SpillConfig        `yaml:"spill"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Database     archive.Config     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
	Support      SupportConfig      `yaml:"support"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AppInfo identifies the monitored application in batch payloads.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Origin      string `yaml:"origin"` // report URL field when not set per report
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RetryConfig holds retry coordinator defaults.
type RetryConfig struct {
	MaxRetries int             `yaml:"max_retries"`
	Delays     []time.Duration `yaml:"delays"`
}

// Spill store modes.
const (
	SpillModeFile  = "file"
	SpillModeRedis = "redis"
	SpillModeNone  = "none"
)

// SpillConfig selects the offline persistence backend.
type SpillConfig struct {
	Mode  string            `yaml:"mode"`
	Path  string            `yaml:"path"`
	Redis spill.RedisConfig `yaml:"redis"`
}

// ConnectivityConfig drives the reachability probe.
type ConnectivityConfig struct {
	ProbeURL string        `yaml:"probe_url"`
	Interval time.Duration `yaml:"interval"`
}

// SupportConfig locates the support surface offered on failure
// notifications.
type SupportConfig struct {
	URL string `yaml:"url"`
}
