package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gazette-tasks/internal/config"
	"gazette-tasks/internal/infra/adapter/persistence/postgres"
	"gazette-tasks/internal/infra/adapter/persistence/sqlite"
	"gazette-tasks/internal/infra/db"
	"gazette-tasks/internal/infra/notifier"
	"gazette-tasks/internal/infra/scraper"
	workerPkg "gazette-tasks/internal/infra/worker"
	"gazette-tasks/internal/observability/logging"
	"gazette-tasks/internal/observability/tracing"
	"gazette-tasks/internal/repository"
	"gazette-tasks/internal/usecase/ingest"
	"gazette-tasks/internal/usecase/notify"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	shutdownTracing := tracing.Init(tracing.ConfigFromEnv())
	defer func() { _ = shutdownTracing(context.Background()) }()

	database, dialect := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Bool("run_on_start", workerConfig.RunOnStart),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Duration("ingest_timeout", workerConfig.IngestTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	notifyService := setupNotifications(logger, workerConfig.NotifyMaxConcurrent)
	startMetricsServer(ctx, logger, workerConfig.MetricsPort, notifyService)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	ingestService := setupIngest(logger, newTaskRepo(database, dialect), notifyService)

	scheduler, err := workerPkg.NewScheduler(ingestService, *workerConfig, workerMetrics, healthServer, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("next ingestion scheduled", slog.Time("at", scheduler.Next()))

	<-ctx.Done()
	logger.Info("shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("ingestion did not stop in time", slog.Any("error", err))
	}
	if err := notifyService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notification shutdown incomplete", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// initDatabase opens the database and waits until the API has applied the
// schema.
func initDatabase(logger *slog.Logger) (*sql.DB, db.Dialect) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, dialect, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	waitForMigrations(logger, database)
	return database, dialect
}

func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const readyQuery = "SELECT 1 FROM tasks LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(readyQuery); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func newTaskRepo(database *sql.DB, dialect db.Dialect) repository.TaskRepository {
	if dialect == db.DialectSQLite {
		return sqlite.NewTaskRepo(database, time.Now)
	}
	return postgres.NewTaskRepo(database)
}

func setupNotifications(logger *slog.Logger, maxConcurrent int) *notify.Service {
	var channels []notify.Channel
	if cfg := notifier.LoadDiscordConfigFromEnv(logger); cfg.Enabled {
		channels = append(channels, notify.NewDiscordChannel(cfg))
		logger.Info("Discord channel initialized")
	}
	if cfg := notifier.LoadSlackConfigFromEnv(logger); cfg.Enabled {
		channels = append(channels, notify.NewSlackChannel(cfg))
		logger.Info("Slack channel initialized")
	}
	logger.Info("notification service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", maxConcurrent))
	return notify.NewService(channels, maxConcurrent)
}

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
	return ingest.NewService(store, extractor, cfg.BaseURL,
		ingest.WithNotifier(n),
		ingest.WithLogger(logger))
}
