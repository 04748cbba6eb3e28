package notify

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/infra/notifier"
	"gazette-tasks/internal/resilience/circuitbreaker"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	defaultWorkerPoolTimeout   = 5 * time.Second
	defaultNotificationTimeout = 30 * time.Second
)

// ChannelHealthStatus is the externally visible state of one channel.
type ChannelHealthStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	State              string     `json:"state"`
	CircuitBreakerOpen bool       `json:"circuitBreakerOpen"`
	DisabledUntil      *time.Time `json:"disabledUntil,omitempty"`
}

// Service fans task announcements out to its channels. NotifyNewTask never
// blocks on delivery; failures are logged and counted.
type Service struct {
	channels []Channel
	breakers map[string]*circuitbreaker.CircuitBreaker

	healthMu      sync.Mutex
	disabledUntil map[string]time.Time

	workerPool  chan struct{}
	poolTimeout time.Duration
	sendTimeout time.Duration

	// closed and wg.Add are guarded by dispatchMu so Shutdown never waits
	// while a dispatch is still adding to wg.
	dispatchMu sync.RWMutex
	closed     bool
	wg         sync.WaitGroup

	// sendCtx is canceled only when Shutdown gives up waiting.
	sendCtx    context.Context
	abortSends context.CancelFunc
}

// Option configures a Service.
type Option func(*svcOptions)

type svcOptions struct {
	breakerConfig func(channel string) circuitbreaker.Config
	poolTimeout   time.Duration
	sendTimeout   time.Duration
}

// WithBreakerConfig overrides circuitbreaker.NotifierConfig per channel.
func WithBreakerConfig(fn func(channel string) circuitbreaker.Config) Option {
	return func(o *svcOptions) { o.breakerConfig = fn }
}

// WithTimeouts sets how long a notification waits for a worker slot and how
// long a single Send may take.
func WithTimeouts(pool, send time.Duration) Option {
	return func(o *svcOptions) {
		if pool > 0 {
			o.poolTimeout = pool
		}
		if send > 0 {
			o.sendTimeout = send
		}
	}
}

// NewService creates a Service running at most maxConcurrent sends at once.
func NewService(channels []Channel, maxConcurrent int, opts ...Option) *Service {
	o := svcOptions{
		breakerConfig: circuitbreaker.NotifierConfig,
		poolTimeout:   defaultWorkerPoolTimeout,
		sendTimeout:   defaultNotificationTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sendCtx, abortSends := context.WithCancel(context.Background())
	s := &Service{
		channels:      channels,
		breakers:      make(map[string]*circuitbreaker.CircuitBreaker, len(channels)),
		disabledUntil: make(map[string]time.Time),
		workerPool:    make(chan struct{}, maxConcurrent),
		poolTimeout:   o.poolTimeout,
		sendTimeout:   o.sendTimeout,
		sendCtx:       sendCtx,
		abortSends:    abortSends,
	}

	enabled := 0
	for _, ch := range channels {
		if ch.IsEnabled() {
			enabled++
		}
		name := ch.Name()
		cfg := o.breakerConfig(name)
		openFor := cfg.Timeout
		cfg.OnStateChange = func(_ string, _ gobreaker.State, to gobreaker.State) {
			s.healthMu.Lock()
			defer s.healthMu.Unlock()
			if to == gobreaker.StateOpen {
				s.disabledUntil[name] = time.Now().Add(openFor)
				recordBreakerOpened(name)
				return
			}
			delete(s.disabledUntil, name)
		}
		s.breakers[name] = circuitbreaker.New(cfg)
	}
	enabledChannels.Set(float64(enabled))

	return s
}

// NotifyNewTask dispatches task to every enabled channel in the background.
// It returns nil even for a nil task; that case is only logged.
func (s *Service) NotifyNewTask(ctx context.Context, task *entity.Task) error {
	if task == nil {
		slog.Warn("Invalid notification input", slog.Bool("nil_task", true))
		return nil
	}
	s.dispatchMu.RLock()
	defer s.dispatchMu.RUnlock()
	if s.closed {
		for _, ch := range s.channels {
			if ch.IsEnabled() {
				recordDropped(ch.Name(), "shutdown")
			}
		}
		return nil
	}

	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || requestID == "" {
		requestID = uuid.NewString()
	}

	dispatched := 0
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		dispatched++
		s.wg.Add(1)
		go s.notifyChannel(requestID, ch, task)
	}

	if dispatched > 0 {
		slog.Info("Dispatching task notification",
			slog.String("request_id", requestID),
			slog.String("task_id", task.ID),
			slog.String("source", task.Source),
			slog.Int("enabled_channels", dispatched))
	}
	return nil
}

// requestIDKey lets callers pass their own request id to NotifyNewTask.
type requestIDKey struct{}

// WithRequestID returns ctx carrying id for NotifyNewTask.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func (s *Service) notifyChannel(requestID string, channel Channel, task *entity.Task) {
	defer s.wg.Done()

	inFlight.Inc()
	defer inFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// Work dispatched before Shutdown is still delivered, so the only way
	// to miss a slot is the pool timeout.
	timer := time.NewTimer(s.poolTimeout)
	defer timer.Stop()
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-timer.C:
		slog.Warn("Notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		recordDropped(channel.Name(), "pool_full")
		return
	}
	if s.sendCtx.Err() != nil {
		recordDropped(channel.Name(), "shutdown")
		return
	}

	ctx, cancel := context.WithTimeout(s.sendCtx, s.sendTimeout)
	defer cancel()
	ctx = notifier.WithRequestID(ctx, requestID)

	err := s.send(ctx, channel, task)
	if errors.Is(err, ErrCircuitBreakerOpen) {
		slog.Warn("Channel temporarily disabled due to circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		recordDropped(channel.Name(), "circuit_open")
	}
}

// send runs one Send through the channel's breaker and records the outcome.
func (s *Service) send(ctx context.Context, channel Channel, task *entity.Task) error {
	name := channel.Name()
	start := time.Now()

	_, err := circuitbreaker.Do(s.breakers[name], func() (struct{}, error) {
		recordDispatch(name)
		return struct{}{}, channel.Send(ctx, task)
	})
	if circuitbreaker.IsRejected(err) {
		return ErrCircuitBreakerOpen
	}

	duration := time.Since(start)
	if err != nil {
		recordSent(name, false, duration)
		var rl *notifier.RateLimitError
		if errors.As(err, &rl) {
			recordRateLimited(name)
		}
		slog.Warn("Channel notification failed",
			slog.String("channel", name),
			slog.String("task_id", task.ID),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return err
	}

	recordSent(name, true, duration)
	slog.Info("Channel notification sent successfully",
		slog.String("channel", name),
		slog.String("task_id", task.ID),
		slog.String("title", task.Title),
		slog.Duration("send_duration", duration))
	return nil
}

// GetChannelHealth reports each channel's breaker state.
func (s *Service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		// State may fire OnStateChange, which takes healthMu.
		cb := s.breakers[ch.Name()]
		state := cb.State()

		status := ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			State:              state.String(),
			CircuitBreakerOpen: state == gobreaker.StateOpen,
		}
		if status.CircuitBreakerOpen {
			s.healthMu.Lock()
			if until, ok := s.disabledUntil[ch.Name()]; ok {
				status.DisabledUntil = &until
			}
			s.healthMu.Unlock()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Shutdown stops accepting work and waits for every dispatched send to
// finish. If ctx ends first the remaining sends are canceled and ctx's
// error is returned.
func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down notification service")
	s.dispatchMu.Lock()
	s.closed = true
	s.dispatchMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.abortSends()
		slog.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("Notification service shutdown timeout, canceling in-flight sends")
		s.abortSends()
		return ctx.Err()
	}
}
