package http

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Timeout cancels the request context after d and answers 504 if the handler
// has not started its response by then. Event streams (Accept:
// text/event-stream) are not subject to the deadline.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			gw := &guardedWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				gw.expire()
			}
		})
	}
}

// guardedWriter lets either the handler or the timeout path own the
// response. The handler writes headers into its own map, so the two never
// touch the underlying header concurrently.
type guardedWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu      sync.Mutex
	started bool
	expired bool
}

func (g *guardedWriter) Header() http.Header { return g.header }

// start must be called with mu held.
func (g *guardedWriter) start(code int) {
	g.started = true
	maps.Copy(g.w.Header(), g.header)
	g.w.WriteHeader(code)
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.expired && !g.started {
		g.start(code)
	}
}

func (g *guardedWriter) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.expired {
		return 0, http.ErrHandlerTimeout
	}
	if !g.started {
		g.start(http.StatusOK)
	}
	return g.w.Write(p)
}

// expire writes the 504 unless the handler already began its response.
func (g *guardedWriter) expire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = true
	if g.started {
		return
	}
	g.w.Header().Set("Content-Type", "application/json")
	g.w.WriteHeader(http.StatusGatewayTimeout)
	_, _ = g.w.Write([]byte(`{"error":"request timeout"}`))
}
