package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gazette-tasks/internal/pkg/config"
)

// WorkerMetrics holds the worker's job and configuration metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts scheduled runs by status: started, success, failure, skipped.
	JobRunsTotal *prometheus.CounterVec

	JobDurationSeconds prometheus.Histogram

	// JobNewEntriesTotal counts tasks created across all runs.
	JobNewEntriesTotal prometheus.Counter

	JobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
// Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the worker metrics with reg.
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		JobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_ingest_job_runs_total",
			Help: "Total number of scheduled ingestion runs by status",
		}, []string{"status"}),

		JobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_ingest_job_duration_seconds",
			Help:    "Duration of scheduled ingestion runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900},
		}),

		JobNewEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_ingest_job_new_entries_total",
			Help: "Total number of tasks created by scheduled ingestion runs",
		}),

		JobLastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_ingest_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful ingestion run",
		}),
	}
}

func (m *WorkerMetrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordNewEntries(n int) {
	m.JobNewEntriesTotal.Add(float64(n))
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.JobLastSuccessTimestamp.SetToCurrentTime()
}
