package worker

import (
	"fmt"
	"log/slog"
	"time"

	"gazette-tasks/internal/pkg/config"
)

// WorkerConfig holds the settings of the ingestion worker.
//
// Values come from the environment (LoadConfigFromEnv) with DefaultConfig as
// the base. An invalid value never stops the worker: it falls back to the
// default and is reported through logs and the worker_config_* metrics.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression, e.g. "0 */6 * * *".
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string

	// RunOnStart triggers one ingestion immediately after startup.
	RunOnStart bool

	// NotifyMaxConcurrent bounds concurrent webhook calls. Range: 1-50.
	NotifyMaxConcurrent int

	// IngestTimeout caps a single ingestion run. Range: 10s-1h.
	IngestTimeout time.Duration

	// HealthPort serves /health and /health/ready. Range: 1024-65535.
	HealthPort int

	// MetricsPort serves /metrics and /health/channels. Range: 1024-65535.
	MetricsPort int
}

// DefaultConfig returns the settings used when nothing is configured:
// every six hours in Maldives time, with an initial run at startup.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:        "0 */6 * * *",
		Timezone:            "Indian/Maldives",
		RunOnStart:          true,
		NotifyMaxConcurrent: 10,
		IngestTimeout:       10 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9090,
	}
}

func validNotifyConcurrency(v int) error { return config.ValidateIntRange(v, 1, 50) }
func validPort(v int) error              { return config.ValidateIntRange(v, 1024, 65535) }
func validIngestTimeout(d time.Duration) error {
	return config.ValidateDuration(d, 10*time.Second, time.Hour)
}

// Validate checks every field and reports all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validNotifyConcurrency(c.NotifyMaxConcurrent); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := validIngestTimeout(c.IngestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("ingest timeout: %w", err))
	}
	if err := validPort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := validPort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads the worker settings. It never fails.
//
// Environment variables:
//   - CRON_SCHEDULE (default "0 */6 * * *")
//   - WORKER_TIMEZONE (default "Indian/Maldives")
//   - WORKER_RUN_ON_START (default true)
//   - NOTIFY_MAX_CONCURRENT (default 10)
//   - INGEST_TIMEOUT, a Go duration (default 10m)
//   - WORKER_HEALTH_PORT (default 9091)
//   - METRICS_PORT (default 9090)
//
// Every fallback increments the validation and fallback counters of metrics
// and is logged as a warning.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	l := &envLoader{logger: logger, metrics: metrics}

	cfg.CronSchedule = track(l, "cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.Timezone = track(l, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.RunOnStart = track(l, "run_on_start",
		config.LoadEnvBool("WORKER_RUN_ON_START", cfg.RunOnStart))
	cfg.NotifyMaxConcurrent = track(l, "notify_max_concurrent",
		config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, validNotifyConcurrency))
	cfg.IngestTimeout = track(l, "ingest_timeout",
		config.LoadEnvDuration("INGEST_TIMEOUT", cfg.IngestTimeout, validIngestTimeout))
	cfg.HealthPort = track(l, "health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validPort))
	cfg.MetricsPort = track(l, "metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, validPort))

	// ポートが重複した場合は両方ともデフォルトに戻す
	if cfg.HealthPort == cfg.MetricsPort {
		def := DefaultConfig()
		logger.Warn("Configuration fallback applied",
			slog.String("field", "ports"),
			slog.String("warning", fmt.Sprintf("health and metrics port are both %d, using defaults", cfg.HealthPort)))
		cfg.HealthPort, cfg.MetricsPort = def.HealthPort, def.MetricsPort
		metrics.RecordFallback("ports")
		l.fallback = true
	}

	metrics.SetFallbackActive(l.fallback)
	metrics.RecordLoadTimestamp()
	return &cfg
}

type envLoader struct {
	logger   *slog.Logger
	metrics  *WorkerMetrics
	fallback bool
}

// track records a fallback for field and returns the loaded value.
func track[T any](l *envLoader, field string, res config.LoadResult[T]) T {
	if !res.FallbackApplied {
		return res.Value
	}
	l.fallback = true
	l.metrics.RecordFallback(field)
	for _, w := range res.Warnings {
		l.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", w))
	}
	return res.Value
}
