package domain

// MetricsSnapshot is an immutable copy of the aggregator's counters.
type MetricsSnapshot struct {
	TotalErrors       int64              `json:"totalErrors"`
	UniqueErrors      int64              `json:"uniqueErrors"`
	ErrorsByCategory  map[Category]int64 `json:"errorsByCategory"`
	ErrorsByComponent map[string]int64   `json:"errorsByComponent"`
	RetryAttempts     int64              `json:"retryAttempts"`
	RecoveryRate      float64            `json:"recoveryRate"`
}
