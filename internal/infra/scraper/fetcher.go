// Package scraper fetches the gazette publication page and turns its markup
// into GazetteEntry values.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gazette-tasks/internal/observability/metrics"
	"gazette-tasks/internal/observability/tracing"
	"gazette-tasks/internal/resilience/circuitbreaker"
)

const (
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
	defaultUserAgent   = "gazette-tasks/1.0"
)

// FetchError is returned for a response outside the 2xx range.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// HTTPFetcher downloads a page through a circuit breaker.
// Failures are returned as-is; nothing is retried.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	breaker   *circuitbreaker.CircuitBreaker
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize caps how much of the response body is read.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithCircuitBreaker replaces the default gazette-fetch breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) FetcherOption {
	return func(f *HTTPFetcher) { f.breaker = cb }
}

// NewHTTPFetcher creates a fetcher. A nil client gets a 30 second timeout.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	f := &HTTPFetcher{
		client:    client,
		userAgent: defaultUserAgent,
		maxBytes:  defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.breaker == nil {
		f.breaker = circuitbreaker.New(circuitbreaker.GazetteFetchConfig())
	}
	return f
}

// Fetch returns the body of url. Bodies larger than the configured cap are
// truncated.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracing.Tracer().Start(ctx, "scraper.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	start := time.Now()
	body, err := circuitbreaker.Do(f.breaker, func() ([]byte, error) {
		return f.doFetch(ctx, url)
	})
	elapsed := time.Since(start)

	if err != nil {
		result := "error"
		if circuitbreaker.IsRejected(err) {
			result = "rejected"
			slog.Warn("gazette fetch rejected by circuit breaker",
				slog.String("url", url),
				slog.String("state", f.breaker.State().String()))
		}
		metrics.RecordFetch(result, elapsed, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		return nil, err
	}

	metrics.RecordFetch("success", elapsed, len(body))
	span.SetAttributes(attribute.Int("http.response_size", len(body)))
	return body, nil
}

func (f *HTTPFetcher) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/atom+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	body := buf.Bytes()
	if n > f.maxBytes {
		slog.Warn("gazette page truncated",
			slog.String("url", url),
			slog.Int64("limit_bytes", f.maxBytes))
		body = body[:f.maxBytes]
	}
	return body, nil
}
