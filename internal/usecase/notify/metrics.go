package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatched_total",
		Help: "Task notifications handed to a channel",
	}, []string{"channel"})

	// status: success, failure
	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sent_total",
		Help: "Webhook deliveries by outcome",
	}, []string{"channel", "status"})

	sendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_duration_seconds",
		Help:    "Webhook delivery latency in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
	}, []string{"channel"})

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_rate_limit_hits_total",
		Help: "HTTP 429 answers from webhook endpoints",
	}, []string{"channel"})

	breakerOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_circuit_breaker_open_total",
		Help: "Times a channel breaker moved to open",
	}, []string{"channel"})

	// reason: pool_full, circuit_open, shutdown
	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dropped_total",
		Help: "Task notifications discarded before delivery",
	}, []string{"channel", "reason"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notification_active_goroutines",
		Help: "Deliveries currently running",
	})

	enabledChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notification_channels_enabled",
		Help: "Configured and enabled notification channels",
	})
)

func recordDispatch(channel string) { dispatchedTotal.WithLabelValues(channel).Inc() }

// recordSent records one finished delivery attempt.
func recordSent(channel string, ok bool, d time.Duration) {
	status := "success"
	if !ok {
		status = "failure"
	}
	sentTotal.WithLabelValues(channel, status).Inc()
	sendDuration.WithLabelValues(channel).Observe(d.Seconds())
}

func recordDropped(channel, reason string) { droppedTotal.WithLabelValues(channel, reason).Inc() }

func recordBreakerOpened(channel string) { breakerOpenedTotal.WithLabelValues(channel).Inc() }

func recordRateLimited(channel string) { rateLimitedTotal.WithLabelValues(channel).Inc() }
