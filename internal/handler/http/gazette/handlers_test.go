package gazette_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazette-tasks/internal/handler/http/gazette"
	"gazette-tasks/internal/usecase/liveview"
)

type stubFetcher struct {
	n     int
	err   error
	calls atomic.Int32
}

func (s *stubFetcher) FetchGazetteData(context.Context) (int, error) {
	s.calls.Add(1)
	return s.n, s.err
}

type stubView struct {
	n      int
	err    error
	online bool
}

func (s *stubView) Refresh(context.Context) (int, error) { return s.n, s.err }
func (s *stubView) Online() bool                         { return s.online }
func (s *stubView) SetOnline(_ context.Context, online bool) error {
	s.online = online
	return nil
}

func serve(t *testing.T, f gazette.Fetcher, v gazette.View, limit func(http.Handler) http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	gazette.Register(mux, f, v, limit)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

/* ───────── 1. fetchGazetteData ───────── */

func TestFetchHandler(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  *stubFetcher
		wantCode int
		wantBody string
	}{
		{"new entries", &stubFetcher{n: 3}, http.StatusOK, `{"newEntries":3}`},
		{"nothing new", &stubFetcher{}, http.StatusOK, `{"newEntries":0}`},
		{"failure hides detail", &stubFetcher{err: errors.New("dial tcp 10.0.0.1:443: refused")},
			http.StatusInternalServerError, `{"error":"internal"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.fetcher, &stubView{online: true}, nil, http.MethodPost, "/rpc/fetchGazetteData", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.EqualValues(t, 1, tt.fetcher.calls.Load())
		})
	}
}

func TestFetchHandler_MethodNotAllowed(t *testing.T) {
	f := &stubFetcher{}
	rec := serve(t, f, &stubView{}, nil, http.MethodGet, "/rpc/fetchGazetteData", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Zero(t, f.calls.Load())
}

func TestRegister_AppliesLimitToFetchRoutes(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	f := &stubFetcher{}
	v := &stubView{online: true}

	assert.Equal(t, http.StatusTooManyRequests, serve(t, f, v, deny, http.MethodPost, "/rpc/fetchGazetteData", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, f, v, deny, http.MethodPost, "/refresh-gazette", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, f, v, deny, http.MethodGet, "/network", "").Code)
	assert.Zero(t, f.calls.Load())
}

/* ───────── 2. refresh ───────── */

func TestRefreshHandler(t *testing.T) {
	tests := []struct {
		name     string
		view     *stubView
		wantCode int
		wantBody string
	}{
		{"success", &stubView{n: 2, online: true}, http.StatusOK,
			`{"message":"Gazette data refreshed successfully","newEntries":2}`},
		{"offline", &stubView{err: &liveview.ConnectivityError{Op: liveview.OpRefresh}},
			http.StatusServiceUnavailable, `{"error":"Cannot refresh gazette while offline"}`},
		{"no trigger configured", &stubView{err: liveview.ErrRefreshUnavailable, online: true},
			http.StatusServiceUnavailable, `{"error":"refresh unavailable"}`},
		{"ingestion failure", &stubView{err: errors.New("Refresh: listing fetch: status 502"), online: true},
			http.StatusInternalServerError, `{"error":"internal"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &stubFetcher{}, tt.view, nil, http.MethodPost, "/refresh-gazette", "")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

/* ───────── 3. network switch ───────── */

func TestNetworkHandler(t *testing.T) {
	v := &stubView{online: true}

	rec := serve(t, &stubFetcher{}, v, nil, http.MethodGet, "/network", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"online":true}`, rec.Body.String())

	rec = serve(t, &stubFetcher{}, v, nil, http.MethodPost, "/network", `{"online":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"online":false}`, rec.Body.String())
	assert.False(t, v.online)

	for _, body := range []string{`{}`, `{"online":"yes"}`, `not json`} {
		rec = serve(t, &stubFetcher{}, v, nil, http.MethodPost, "/network", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"online is required"}`, rec.Body.String())
	}
}
