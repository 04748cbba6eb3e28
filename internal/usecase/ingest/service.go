package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/observability/metrics"
	"gazette-tasks/internal/observability/tracing"
)

const defaultPersistParallelism = 4

// State is the phase an ingestion run is in.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateAdmitting
	StatePersisting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateAdmitting:
		return "admitting"
	case StatePersisting:
		return "persisting"
	default:
		return "unknown"
	}
}

// Store is the part of the task repository ingestion writes through.
type Store interface {
	ExistingSources(ctx context.Context, sources []string) (map[string]bool, error)
	Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error)
}

// Notifier is told about each task a run creates. It must not block.
type Notifier interface {
	NotifyNewTask(ctx context.Context, task *entity.Task) error
}

// Result summarizes one run.
type Result struct {
	// NewEntries counts confirmed writes only.
	NewEntries int           `json:"newEntries"`
	Extracted  int           `json:"-"`
	Duplicates int           `json:"-"`
	Failed     int           `json:"-"`
	Duration   time.Duration `json:"-"`
}

// Service runs ingestion.
type Service struct {
	store       Store
	extractor   *Extractor
	baseURL     string
	notifier    Notifier
	now         func() time.Time
	parallelism int
	logger      *slog.Logger

	sem   chan struct{}
	state atomic.Int32
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now for the ingestion timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier registers a hook called for every created task.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithParallelism bounds concurrent task writes.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service. baseURL is prefixed to entry URLs to build
// each task's source.
func NewService(store Store, extractor *Extractor, baseURL string, opts ...Option) *Service {
	s := &Service{
		store:       store,
		extractor:   extractor,
		baseURL:     baseURL,
		now:         time.Now,
		parallelism: defaultPersistParallelism,
		logger:      slog.Default(),
		sem:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the phase of the run in progress, or StateIdle.
func (s *Service) State() State {
	return State(s.state.Load())
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
}

// FetchGazetteData runs one ingestion and returns the number of tasks created.
func (s *Service) FetchGazetteData(ctx context.Context) (int, error) {
	res, err := s.Run(ctx)
	return res.NewEntries, err
}

// Run performs one ingestion. Overlapping calls wait for the previous run.
// Fetch and parse failures end the run with zero new entries and no error;
// only a failed source snapshot is returned as an error. Individual write
// failures are logged, counted in Result.Failed and do not stop the run.
func (s *Service) Run(ctx context.Context) (Result, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() {
		s.setState(StateIdle)
		<-s.sem
	}()

	ctx, span := tracing.Tracer().Start(ctx, "ingest.Run")
	defer span.End()

	start := time.Now()
	ingestedAt := s.now()
	var res Result

	finish := func(result string) {
		res.Duration = time.Since(start)
		metrics.RecordIngestionRun(result, res.Duration)
		span.SetAttributes(
			attribute.String("ingest.result", result),
			attribute.Int("ingest.extracted", res.Extracted),
			attribute.Int("ingest.new_entries", res.NewEntries),
			attribute.Int("ingest.failed", res.Failed),
		)
		s.logger.Info("gazette ingestion completed",
			slog.String("result", result),
			slog.Int("extracted", res.Extracted),
			slog.Int("duplicates", res.Duplicates),
			slog.Int("new_entries", res.NewEntries),
			slog.Int("failed", res.Failed),
			slog.Duration("duration", res.Duration))
	}

	s.setState(StateFetching)
	body, err := s.extractor.fetch(ctx)
	if err != nil {
		finish("fetch_failed")
		return res, nil
	}

	s.setState(StateExtracting)
	entries, err := s.extractor.parse(ctx, body)
	if err != nil {
		finish("parse_failed")
		return res, nil
	}
	res.Extracted = len(entries)
	metrics.RecordEntriesExtracted(len(entries))

	s.setState(StateAdmitting)
	drafts := SynthesizeAll(entries, s.baseURL, ingestedAt)
	existing, err := s.store.ExistingSources(ctx, sources(drafts))
	if err != nil {
		finish("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "existing sources")
		return res, fmt.Errorf("%w: %w", ErrSnapshotFailed, err)
	}
	admitted := Admit(drafts, existing)
	res.Duplicates = len(drafts) - len(admitted)
	metrics.RecordDuplicates(res.Duplicates)

	s.setState(StatePersisting)
	created, failed := s.persist(ctx, admitted)
	res.NewEntries = created
	res.Failed = failed

	result := "success"
	if failed > 0 {
		result = "partial"
	}
	finish(result)
	return res, nil
}

// Drafts extracts and synthesizes without consulting the store.
func (s *Service) Drafts(ctx context.Context) []entity.TaskDraft {
	d := Drafter{extractor: s.extractor, baseURL: s.baseURL, now: s.now}
	return d.Drafts(ctx)
}

func (s *Service) persist(ctx context.Context, drafts []entity.TaskDraft) (created, failed int) {
	var (
		mu sync.Mutex
		eg errgroup.Group
	)
	eg.SetLimit(s.parallelism)

	for _, d := range drafts {
		draft := d
		eg.Go(func() error {
			task, err := s.persistOne(ctx, draft)
			mu.Lock()
			if err != nil {
				failed++
			} else {
				created++
			}
			mu.Unlock()
			if err == nil && s.notifier != nil {
				if err := s.notifier.NotifyNewTask(context.WithoutCancel(ctx), task); err != nil {
					s.logger.Warn("failed to dispatch notification",
						slog.String("task_id", task.ID),
						slog.Any("error", err))
				}
			}
			return nil
		})
	}
	_ = eg.Wait()
	return created, failed
}

func (s *Service) persistOne(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error) {
	if err := draft.Validate(); err != nil {
		metrics.RecordPersistFailure()
		s.logger.Warn("skipping invalid gazette entry",
			slog.String("source", draft.Source),
			slog.Any("error", err))
		return nil, err
	}
	task, err := s.store.Create(ctx, draft)
	if err != nil {
		metrics.RecordPersistFailure()
		s.logger.Error("failed to persist gazette task",
			slog.String("source", draft.Source),
			slog.String("title", draft.Title),
			slog.Any("error", err))
		return nil, err
	}
	metrics.RecordTaskCreated("ingest")
	return task, nil
}
