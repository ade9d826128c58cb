package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportsTotal tracks reports entering the pipeline per category and component
	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errwatch_reports_total",
			Help: "Total number of error reports recorded",
		},
		[]string{"category", "component"},
	)

	// RetryAttemptsTotal tracks reports that carry a retry attempt number
	RetryAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "errwatch_retry_attempts_total",
			Help: "Total number of retried attempts recorded",
		},
	)

	// BatchesSentTotal tracks successfully delivered batches
	BatchesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "errwatch_batches_sent_total",
			Help: "Total number of report batches delivered",
		},
	)

	// BatchSendFailuresTotal tracks batch delivery failures
	BatchSendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "errwatch_batch_send_failures_total",
			Help: "Total number of failed batch deliveries",
		},
	)

	// QueueDepth tracks the number of reports waiting in the batch queue
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "errwatch_queue_depth",
			Help: "Current number of reports pending in the batch queue",
		},
	)

	// SpilledReports tracks reports persisted to the offline spill store
	SpilledReports = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "errwatch_spilled_reports",
			Help: "Number of reports currently persisted in the spill store",
		},
	)

	// AlertsTotal tracks emitted high-error-rate alerts
	AlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "errwatch_alerts_total",
			Help: "Total number of high error rate alerts emitted",
		},
	)

	// DBConnectionPoolUsage tracks archive connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "errwatch_db_connection_pool_usage",
			Help: "Archive database connection pool usage percentage",
		},
	)
)
