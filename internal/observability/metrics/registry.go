package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/* ───────── 1. HTTP ───────── */

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by method, route and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response body size in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "path"})
)

/* ───────── 2. Gazette ingestion ───────── */

var (
	// result: success, partial, fetch_failed, parse_failed, error
	IngestionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gazette_ingestion_runs_total",
		Help: "Ingestion runs by result",
	}, []string{"result"})

	IngestionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gazette_ingestion_duration_seconds",
		Help:    "Wall time of one ingestion run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	EntriesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gazette_entries_extracted_total",
		Help: "Entries read off the publication page",
	})

	EntriesDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gazette_entries_duplicate_total",
		Help: "Entries dropped because a task with the same source already exists",
	})

	// result: success, http_error, network_error, parse_error, circuit_open
	GazetteFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gazette_fetch_total",
		Help: "Publication page fetches by result",
	}, []string{"result"})

	GazetteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gazette_fetch_duration_seconds",
		Help:    "Publication page fetch latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
	})

	// 1KiB .. 10MiB
	GazetteFetchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gazette_fetch_size_bytes",
		Help:    "Publication page body size in bytes",
		Buckets: append(prometheus.ExponentialBuckets(1024, 4, 7), 10<<20),
	})
)

/* ───────── 3. Tasks ───────── */

var (
	// origin: ingestion, manual
	TasksCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tasks_created_total",
		Help: "Tasks persisted, by origin",
	}, []string{"origin"})

	TaskPersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "task_persist_failures_total",
		Help: "Task drafts that could not be written",
	})

	ChangefeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "changefeed_subscribers",
		Help: "Open change feed subscriptions",
	})

	ChangefeedChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "changefeed_changes_total",
		Help: "Change deltas published, by kind",
	}, []string{"kind"})

	LiveViewTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "live_view_tasks",
		Help: "Tasks held in the live view projection",
	})

	LiveViewOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "live_view_online",
		Help: "1 while the live view accepts writes",
	})

	// reason: offline, validation, not_found
	MutationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "live_view_mutations_rejected_total",
		Help: "Mutations the live view refused, by operation and reason",
	}, []string{"operation", "reason"})
)

/* ───────── 4. Database pool ───────── */

var (
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connections_active",
		Help: "Connections currently in use",
	})

	DBConnectionsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "db_connections_idle",
		Help: "Idle pooled connections",
	})
)

// RecordHTTPRequest records one served request. A zero size is not observed.
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
