// Package http wires the task API: routes, health endpoints and the
// middleware chain shared by every handler.
package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/usecase/notify"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"` // healthy, degraded or unhealthy
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ChannelHealthReporter is implemented by *notify.Service.
type ChannelHealthReporter interface {
	GetChannelHealth() []notify.ChannelHealthStatus
}

// OnlineReporter is implemented by *liveview.View.
type OnlineReporter interface {
	Online() bool
}

// HealthHandler reports database, connectivity and notification status.
// Only a failing database makes the service unhealthy.
type HealthHandler struct {
	DB            *sql.DB
	Version       string
	View          OnlineReporter
	Notifications ChannelHealthReporter
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	status := "healthy"
	code := http.StatusOK

	if h.DB != nil {
		checks["database"] = h.checkDatabase(ctx)
	} else {
		checks["database"] = CheckStatus{Status: "unhealthy", Message: "not configured"}
	}
	switch checks["database"].Status {
	case "unhealthy":
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case "degraded":
		status = "degraded"
	}

	if h.View != nil {
		if h.View.Online() {
			checks["connectivity"] = CheckStatus{Status: "healthy"}
		} else {
			checks["connectivity"] = CheckStatus{Status: "degraded", Message: "offline, mutations rejected"}
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	if h.Notifications != nil {
		checks["notifications"] = h.checkNotifications()
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: "unhealthy", Message: "ping failed"}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
	}

	// MaxOpenConnections 0 は無制限
	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80.0 {
			return CheckStatus{
				Status:  "degraded",
				Message: "connection pool utilization above 80%",
				Details: details,
			}
		}
	}

	return CheckStatus{Status: "healthy", Details: details}
}

// checkNotifications is informational; an open breaker degrades only that channel.
func (h *HealthHandler) checkNotifications() CheckStatus {
	channels := h.Notifications.GetChannelHealth()
	details := make(map[string]any, len(channels))
	open := 0
	for _, ch := range channels {
		details[ch.Name] = ch
		if ch.CircuitBreakerOpen {
			open++
		}
	}
	if open > 0 {
		return CheckStatus{Status: "degraded", Message: "circuit breaker open", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// ReadyHandler answers readiness checks: 200 once the database answers a ping.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler answers liveness checks.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
