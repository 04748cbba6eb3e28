package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gazette-tasks/internal/usecase/notify"
)

// ChannelHealthResponse is the body of GET /health/channels.
type ChannelHealthResponse struct {
	Healthy  bool                         `json:"healthy"`
	Channels []notify.ChannelHealthStatus `json:"channels"`
}

// channelHealthSource is implemented by *notify.Service.
type channelHealthSource interface {
	GetChannelHealth() []notify.ChannelHealthStatus
}

// startMetricsServer serves /metrics and /health/channels on port until ctx
// is canceled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, notifications channelHealthSource) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsMux(notifications),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

func metricsMux(notifications channelHealthSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health/channels", channelHealthHandler(notifications))
	return mux
}

// channelHealthHandler answers 503 when any enabled channel has its circuit
// breaker open.
func channelHealthHandler(notifications channelHealthSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		statuses := notifications.GetChannelHealth()
		healthy := true
		for _, st := range statuses {
			if st.Enabled && st.CircuitBreakerOpen {
				healthy = false
			}
		}
		if statuses == nil {
			statuses = []notify.ChannelHealthStatus{}
		}

		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(ChannelHealthResponse{Healthy: healthy, Channels: statuses})
	}
}
