package http

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"gazette-tasks/internal/handler/http/pathutil"
	"gazette-tasks/internal/handler/http/requestid"
	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/handler/http/responsewriter"
	"gazette-tasks/internal/observability/logging"
	"gazette-tasks/internal/observability/metrics"

	"golang.org/x/time/rate"
)

// Logging writes one "request completed" line per request. The logger it
// stores in the context carries the request and trace ids, so handlers that
// log through logging.FromContext are correlated with this line.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rw := responsewriter.Wrap(w)
			l := logging.WithRequestID(r.Context(), logger)

			next.ServeHTTP(rw, r.WithContext(logging.WithLogger(r.Context(), l)))

			l.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", rw.StatusCode()),
				slog.Int("bytes", rw.BytesWritten()),
				slog.Duration("duration", time.Since(began)))
		})
	}
}

// Metrics feeds the http_* collectors. Task ids in the path are collapsed so
// the route label stays bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rw := responsewriter.Wrap(w)
		next.ServeHTTP(rw, r)

		route := pathutil.NormalizePath(r.URL.Path)
		status := strconv.Itoa(rw.StatusCode())
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(began), rw.BytesWritten())
	})
}

// Recover answers 500 for a panicking handler and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				switch rec {
				case nil:
					return
				case http.ErrAbortHandler:
					panic(rec)
				}
				logger.Error("panic recovered",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))
				respond.SafeError(w, http.StatusInternalServerError, errors.New("panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody caps request bodies at maxBytes.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter is a per-client token bucket for endpoints that trigger a
// gazette fetch, so one client cannot hammer the publication site.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	interval  time.Duration
	burst     int
	idleAfter time.Duration
	lastClean time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows burst requests per client, refilled once per interval.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*client),
		interval:  interval,
		burst:     burst,
		idleAfter: 10 * time.Minute,
		lastClean: time.Now(),
	}
}

// Limit responds 429 once the client's bucket is empty.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r), time.Now()) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.interval.Round(time.Second).Seconds())))
			respond.SafeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded, must be retried later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// 古いクライアントを定期的に削除
	if now.Sub(rl.lastClean) > rl.idleAfter {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.idleAfter {
				delete(rl.clients, k)
			}
		}
		rl.lastClean = now
	}

	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Every(rl.interval), rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// clientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
