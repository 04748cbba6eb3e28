package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gazette-tasks/internal/config"
	hhttp "gazette-tasks/internal/handler/http"
	"gazette-tasks/internal/infra/adapter/persistence/postgres"
	"gazette-tasks/internal/infra/adapter/persistence/sqlite"
	"gazette-tasks/internal/infra/changefeed"
	"gazette-tasks/internal/infra/connectivity"
	"gazette-tasks/internal/infra/db"
	"gazette-tasks/internal/infra/notifier"
	"gazette-tasks/internal/infra/scraper"
	"gazette-tasks/internal/observability/logging"
	"gazette-tasks/internal/observability/tracing"
	pkgconfig "gazette-tasks/internal/pkg/config"
	"gazette-tasks/internal/repository"
	"gazette-tasks/internal/usecase/ingest"
	"gazette-tasks/internal/usecase/liveview"
	"gazette-tasks/internal/usecase/notify"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	shutdownTracing := tracing.Init(tracing.ConfigFromEnv())
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	database, dialect := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := changefeed.New(newTaskRepo(database, dialect), logger)
	defer store.Close()
	go store.Run(ctx, pkgconfig.GetEnvDuration("SYNC_INTERVAL", 5*time.Second))

	notifyService := setupNotifications(logger)
	ingestService := setupIngest(logger, store, notifyService)

	view := liveview.New(store,
		liveview.WithNetwork(store),
		liveview.WithRefresher(ingestService),
		liveview.WithLogger(logger))
	if err := view.Start(ctx); err != nil {
		logger.Error("failed to start live view", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = view.Close() }()

	monitor := connectivity.NewMonitor(database, view,
		pkgconfig.GetEnvDuration("CONNECTIVITY_INTERVAL", 15*time.Second), logger)
	go monitor.Run(ctx)

	handler := hhttp.NewRouter(hhttp.RouterConfig{
		View:            view,
		Fetcher:         ingestService,
		DB:              database,
		Notifications:   notifyService,
		Logger:          logger,
		Version:         getVersion(),
		RequestTimeout:  pkgconfig.GetEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		RefreshInterval: pkgconfig.GetEnvDuration("REFRESH_RATE_INTERVAL", 30*time.Second),
		RefreshBurst:    pkgconfig.GetEnvInt("REFRESH_RATE_BURST", 2),
		Now:             time.Now,
	})

	runServer(ctx, cancel, logger, handler, notifyService)
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) (*sql.DB, db.Dialect) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, dialect, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database, dialect); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready", slog.String("driver", string(dialect)))
	return database, dialect
}

func newTaskRepo(database *sql.DB, dialect db.Dialect) repository.TaskRepository {
	if dialect == db.DialectSQLite {
		return sqlite.NewTaskRepo(database, time.Now)
	}
	return postgres.NewTaskRepo(database)
}

// setupNotifications builds the webhook fan-out from SLACK_* and DISCORD_*.
// With no channel enabled the service simply has nothing to send to.
func setupNotifications(logger *slog.Logger) *notify.Service {
	var channels []notify.Channel
	if cfg := notifier.LoadSlackConfigFromEnv(logger); cfg.Enabled {
		channels = append(channels, notify.NewSlackChannel(cfg))
	}
	if cfg := notifier.LoadDiscordConfigFromEnv(logger); cfg.Enabled {
		channels = append(channels, notify.NewDiscordChannel(cfg))
	}
	maxConcurrent := pkgconfig.GetEnvInt("NOTIFY_MAX_CONCURRENT", 10)
	logger.Info("notification service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", maxConcurrent))
	return notify.NewService(channels, maxConcurrent)
}

// setupIngest wires the gazette source to the task store.
func setupIngest(logger *slog.Logger, store ingest.Store, n ingest.Notifier) *ingest.Service {
	cfg, warnings, err := config.LoadGazetteConfig(os.Getenv("GAZETTE_CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load gazette configuration", slog.Any("error", err))
		os.Exit(1)
	}
	for _, w := range warnings {
		logger.Warn("Configuration fallback applied", slog.String("warning", w))
	}

	parser, err := scraper.NewParser(cfg)
	if err != nil {
		logger.Error("failed to create gazette parser", slog.Any("error", err))
		os.Exit(1)
	}
	extractor := ingest.NewExtractor(scraper.NewFetcherFromConfig(cfg), parser, cfg.PageURL, logger)
	logger.Info("gazette source configured",
		slog.String("page_url", cfg.PageURL),
		slog.String("source_type", cfg.SourceType))

	return ingest.NewService(store, extractor, cfg.BaseURL,
		ingest.WithNotifier(n),
		ingest.WithLogger(logger))
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	return pkgconfig.GetEnvString("VERSION", "dev")
}

// runServer serves until SIGINT/SIGTERM, then drains requests and pending
// notifications.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, handler http.Handler, notifyService *notify.Service) {
	addr := pkgconfig.GetEnvString("HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris 対策
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", getVersion()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// SSE streams and background loops end with ctx
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if err := notifyService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notification shutdown incomplete", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
