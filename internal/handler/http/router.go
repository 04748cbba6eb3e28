package http

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"gazette-tasks/internal/handler/http/gazette"
	"gazette-tasks/internal/handler/http/requestid"
	"gazette-tasks/internal/handler/http/task"
	"gazette-tasks/internal/observability/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// View is the live view as the API needs it.
type View interface {
	task.Service
	gazette.View
}

// RouterConfig holds everything the API routes depend on.
type RouterConfig struct {
	View          View
	Fetcher       gazette.Fetcher
	DB            *sql.DB
	Notifications ChannelHealthReporter
	Logger        *slog.Logger
	Version       string

	RequestTimeout time.Duration
	// RefreshInterval and RefreshBurst bound how often one client may trigger
	// a gazette fetch. Zero interval disables the limit.
	RefreshInterval time.Duration
	RefreshBurst    int
	Now             func() time.Time
}

// NewRouter builds the API handler with the full middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	mux := http.NewServeMux()
	task.Register(mux, cfg.View, cfg.Now)

	var limit func(http.Handler) http.Handler
	if cfg.RefreshInterval > 0 {
		burst := cfg.RefreshBurst
		if burst <= 0 {
			burst = 1
		}
		limit = NewRateLimiter(cfg.RefreshInterval, burst).Limit
	}
	gazette.Register(mux, cfg.Fetcher, cfg.View, limit)

	mux.Handle("GET /health", &HealthHandler{
		DB:            cfg.DB,
		Version:       cfg.Version,
		View:          cfg.View,
		Notifications: cfg.Notifications,
	})
	mux.Handle("GET /ready", &ReadyHandler{DB: cfg.DB})
	mux.Handle("GET /live", &LiveHandler{})
	mux.Handle("GET /metrics", promhttp.Handler())

	// innermost first
	var h http.Handler = mux
	h = InputValidation()(h)
	h = Timeout(cfg.RequestTimeout)(h)
	h = Metrics(h)
	h = Recover(cfg.Logger)(h)
	h = Logging(cfg.Logger)(h)
	h = requestid.Middleware(h)
	h = tracing.Middleware(h)
	return h
}
