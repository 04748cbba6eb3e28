package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gazette-tasks/internal/handler/http/respond"
)

// Ingester runs one gazette ingestion and reports the number of new tasks.
type Ingester interface {
	FetchGazetteData(ctx context.Context) (int, error)
}

// Scheduler triggers ingestion on a cron schedule. A trigger that fires while
// the previous run is still going is skipped, so runs never overlap.
type Scheduler struct {
	cron     *cron.Cron
	job      cron.Job
	ingester Ingester
	cfg      WorkerConfig
	metrics  *WorkerMetrics
	health   *HealthServer
	logger   *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	startup sync.WaitGroup
}

// NewScheduler validates the schedule and timezone of cfg and registers the
// ingestion job. health may be nil.
func NewScheduler(ing Ingester, cfg WorkerConfig, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("NewScheduler: timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		ingester: ing,
		cfg:      cfg,
		metrics:  metrics,
		health:   health,
		logger:   logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{logger: logger, metrics: metrics}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.run))
	s.cron = cron.New(cron.WithLocation(loc), cron.WithLogger(cl))
	if _, err := s.cron.AddJob(cfg.CronSchedule, s.job); err != nil {
		s.cancel()
		return nil, fmt.Errorf("NewScheduler: schedule %q: %w", cfg.CronSchedule, err)
	}
	return s, nil
}

// Start begins scheduling. With RunOnStart an immediate run is triggered
// through the same skip guard as scheduled runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.cfg.RunOnStart {
		s.startup.Go(s.job.Run)
	}
	if s.health != nil {
		s.health.SetReady(true)
	}
	s.logger.Info("worker started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone),
		slog.Bool("run_on_start", s.cfg.RunOnStart))
}

// Stop cancels the run in progress and waits for it until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.health != nil {
		s.health.SetReady(false)
	}
	s.cancel()
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.startup.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Stop: %w", ctx.Err())
	}
}

// Next returns the time of the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// run executes one ingestion with the configured timeout.
func (s *Scheduler) run() {
	start := time.Now()
	s.metrics.RecordJobRun("started")
	s.logger.Info("ingestion started")

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.IngestTimeout)
	defer cancel()

	n, err := s.ingester.FetchGazetteData(ctx)
	s.metrics.RecordJobDuration(time.Since(start).Seconds())

	status := RunStatus{FinishedAt: time.Now(), NewEntries: n}
	if err != nil {
		// 機密情報をマスクしてログ出力
		msg := respond.SanitizeError(err)
		s.logger.Error("ingestion failed", slog.String("error", msg))
		s.metrics.RecordJobRun("failure")
		status.Error = msg
	} else {
		s.metrics.RecordJobRun("success")
		s.metrics.RecordNewEntries(n)
		s.metrics.RecordLastSuccess()
		status.Succeeded = true
		s.logger.Info("ingestion completed",
			slog.Int("new_entries", n),
			slog.Duration("duration", time.Since(start)))
	}
	if s.health != nil {
		s.health.RecordRun(status)
	}
}

// cronLogger adapts slog to cron.Logger and counts skipped triggers.
type cronLogger struct {
	logger  *slog.Logger
	metrics *WorkerMetrics
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		l.metrics.RecordJobRun("skipped")
		l.logger.Warn("ingestion still running, trigger skipped")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
