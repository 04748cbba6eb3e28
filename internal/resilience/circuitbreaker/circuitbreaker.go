// Package circuitbreaker wraps github.com/sony/gobreaker for the calls this
// service makes to hosts it does not control: the gazette publication page
// and the notification webhooks.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes when a breaker opens and how it recovers.
//
// The breaker trips once at least MinRequests calls were counted in the
// current Interval and the share of failures reached FailureThreshold. It
// stays open for Timeout, then lets MaxRequests trial calls through.
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32

	// OnStateChange runs after the transition is logged. Optional.
	OnStateChange func(name string, from, to gobreaker.State)
}

// GazetteFetchConfig guards the publication page. Three failed fetches in a
// row open it for five minutes, which covers several manual refreshes.
func GazetteFetchConfig() Config {
	return Config{
		Name:             "gazette-fetch",
		MaxRequests:      1,
		Interval:         10 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 1.0,
		MinRequests:      3,
	}
}

// NotifierConfig guards one webhook channel such as "slack" or "discord".
func NotifierConfig(channel string) Config {
	return Config{
		Name:             channel + "-notifier",
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          2 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

func (c Config) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureThreshold
}

// CircuitBreaker is a named gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

// New builds a breaker from cfg. State changes are logged at warn level.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{
		name: cfg.Name,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: cfg.readyToTrip,
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
				if cfg.OnStateChange != nil {
					cfg.OnStateChange(name, from, to)
				}
			},
		}),
	}
}

// Do calls fn unless the breaker rejects the call. A rejected call returns
// the zero T and an error for which IsRejected is true. Whenever err is
// non-nil the result is the zero T, even if fn returned a value with it.
func Do[T any](b *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func (b *CircuitBreaker) State() gobreaker.State { return b.cb.State() }

func (b *CircuitBreaker) Name() string { return b.name }

// IsRejected reports whether err came from the breaker itself rather than
// from the protected call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
