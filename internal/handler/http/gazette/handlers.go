// Package gazette exposes the ingestion entry points and the manual
// connectivity switch.
package gazette

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/observability/logging"
	"gazette-tasks/internal/usecase/liveview"
)

// Fetcher is implemented by *ingest.Service.
type Fetcher interface {
	FetchGazetteData(ctx context.Context) (int, error)
}

// Refresher is implemented by *liveview.View.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Switch is implemented by *liveview.View.
type Switch interface {
	Online() bool
	SetOnline(ctx context.Context, online bool) error
}

// View is implemented by *liveview.View.
type View interface {
	Refresher
	Switch
}

// Register mounts the gazette routes. limit, when non-nil, wraps the two
// routes that trigger a fetch of the publication page.
func Register(mux *http.ServeMux, fetcher Fetcher, view View, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("POST /rpc/fetchGazetteData", limit(FetchHandler{Svc: fetcher}))
	mux.Handle("POST /refresh-gazette", limit(RefreshHandler{Svc: view}))
	mux.Handle("GET  /network", NetworkHandler{Svc: view})
	mux.Handle("POST /network", NetworkHandler{Svc: view})
}

type fetchResponse struct {
	NewEntries int `json:"newEntries"`
}

// internalFailure is the only error the remote entry point ever reports.
var internalFailure = map[string]string{"error": "internal"}

// FetchHandler serves POST /rpc/fetchGazetteData. Any failure is reported
// as a bare 500 {"error":"internal"}; detail goes to the log only.
type FetchHandler struct{ Svc Fetcher }

func (h FetchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.FetchGazetteData(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("fetchGazetteData failed",
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, internalFailure)
		return
	}
	respond.JSON(w, http.StatusOK, fetchResponse{NewEntries: n})
}

type refreshResponse struct {
	Message    string `json:"message"`
	NewEntries int    `json:"newEntries"`
}

// RefreshHandler serves POST /refresh-gazette through the live view, so it
// is rejected with 503 while offline.
type RefreshHandler struct{ Svc Refresher }

func (h RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.Refresh(r.Context())
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, refreshResponse{
			Message:    "Gazette data refreshed successfully",
			NewEntries: n,
		})
	case errors.Is(err, liveview.ErrOffline):
		respond.SafeError(w, http.StatusServiceUnavailable,
			respond.NewAppError(http.StatusServiceUnavailable, err.Error(), nil))
	case errors.Is(err, liveview.ErrRefreshUnavailable):
		respond.SafeError(w, http.StatusServiceUnavailable,
			respond.NewAppError(http.StatusServiceUnavailable, "refresh unavailable", err))
	default:
		logging.FromContext(r.Context()).Error("refresh failed",
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, internalFailure)
	}
}

type networkState struct {
	Online *bool `json:"online"`
}

// NetworkHandler reports (GET) or sets (POST {"online": bool}) connectivity.
type NetworkHandler struct{ Svc Switch }

func (h NetworkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req networkState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Online == nil {
			respond.SafeError(w, http.StatusBadRequest, errors.New("online is required"))
			return
		}
		if err := h.Svc.SetOnline(r.Context(), *req.Online); err != nil {
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	online := h.Svc.Online()
	respond.JSON(w, http.StatusOK, networkState{Online: &online})
}
