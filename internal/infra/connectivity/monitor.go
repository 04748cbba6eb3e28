// Package connectivity watches the database connection and flips the live
// view between online and offline.
package connectivity

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"gazette-tasks/internal/observability/metrics"
)

// Pinger checks reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// poolStats is implemented by *sql.DB; when the pinger has it, every check
// also refreshes the db_connections_* gauges.
type poolStats interface {
	Stats() sql.DBStats
}

// Target receives connectivity changes.
type Target interface {
	SetOnline(ctx context.Context, online bool) error
}

// Monitor pings on an interval. It reports offline after FailureThreshold
// consecutive failures and online after the first success that follows.
// Only transitions it observes are forwarded, so a manual toggle stays in
// effect until the observed state changes.
type Monitor struct {
	pinger           Pinger
	target           Target
	interval         time.Duration
	timeout          time.Duration
	failureThreshold int
	logger           *slog.Logger

	failures int
	observed bool
}

// NewMonitor creates a Monitor with a 3 second ping timeout and a threshold of 3.
func NewMonitor(pinger Pinger, target Target, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		pinger:           pinger,
		target:           target,
		interval:         interval,
		timeout:          3 * time.Second,
		failureThreshold: 3,
		logger:           logger,
		observed:         true,
	}
}

// Run blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one check and returns the observed state.
func (m *Monitor) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.pinger.PingContext(pingCtx)
	cancel()
	if ps, ok := m.pinger.(poolStats); ok {
		st := ps.Stats()
		metrics.UpdateDBConnectionStats(st.InUse, st.Idle)
	}

	if err != nil {
		m.failures++
		m.logger.Debug("connectivity check failed",
			slog.Int("consecutive_failures", m.failures),
			slog.Any("error", err))
		if m.observed && m.failures >= m.failureThreshold {
			m.transition(ctx, false)
		}
		return m.observed
	}

	m.failures = 0
	if !m.observed {
		m.transition(ctx, true)
	}
	return m.observed
}

func (m *Monitor) transition(ctx context.Context, online bool) {
	if err := m.target.SetOnline(ctx, online); err != nil {
		m.logger.Warn("failed to apply connectivity change",
			slog.Bool("online", online),
			slog.Any("error", err))
		return
	}
	m.observed = online
	m.logger.Info("connectivity changed", slog.Bool("online", online))
}
