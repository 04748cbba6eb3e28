package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"gazette-tasks/internal/infra/scraper"
	"gazette-tasks/internal/resilience/circuitbreaker"
)

func isolatedBreaker() *circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.GazetteFetchConfig()
	cfg.Name = "test-fetch"
	return circuitbreaker.New(cfg)
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := scraper.NewHTTPFetcher(srv.Client(),
		scraper.WithUserAgent("gazette-test/1.0"),
		scraper.WithCircuitBreaker(isolatedBreaker()))

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "<html><body>ok</body></html>" {
		t.Errorf("body = %q", body)
	}
	if gotUA != "gazette-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestHTTPFetcher_Fetch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			f := scraper.NewHTTPFetcher(srv.Client(), scraper.WithCircuitBreaker(isolatedBreaker()))
			_, err := f.Fetch(context.Background(), srv.URL)

			var fe *scraper.FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("want *FetchError, got %v", err)
			}
			if fe.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, status)
			}
		})
	}
}

func TestHTTPFetcher_Fetch_TruncatesLargeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	f := scraper.NewHTTPFetcher(srv.Client(),
		scraper.WithMaxBodySize(10),
		scraper.WithCircuitBreaker(isolatedBreaker()))

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(body) != 10 {
		t.Errorf("len(body) = %d, want 10", len(body))
	}
}

func TestHTTPFetcher_Fetch_NoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := scraper.NewHTTPFetcher(srv.Client(), scraper.WithCircuitBreaker(isolatedBreaker()))
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want exactly 1", n)
	}
}

func TestHTTPFetcher_Fetch_CircuitOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := scraper.NewHTTPFetcher(srv.Client(), scraper.WithCircuitBreaker(isolatedBreaker()))
	for i := 0; i < 3; i++ {
		_, _ = f.Fetch(context.Background(), srv.URL)
	}

	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("want ErrOpenState, got %v", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestHTTPFetcher_Fetch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := scraper.NewHTTPFetcher(srv.Client(), scraper.WithCircuitBreaker(isolatedBreaker()))
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected error for canceled request")
	}
}
