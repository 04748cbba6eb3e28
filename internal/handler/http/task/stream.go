package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/observability/logging"
)

// StreamHandler serves GET /tasks/stream as server-sent events. Every
// republished snapshot becomes one "tasks" event; a slow client only gets
// the latest snapshot. A comment line is sent every KeepAlive.
type StreamHandler struct {
	Svc       Service
	Now       func() time.Time
	KeepAlive time.Duration
}

func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	snapshots, stop, err := h.Svc.Watch()
	if err != nil {
		respond.SafeError(w, http.StatusServiceUnavailable, respond.NewAppError(http.StatusServiceUnavailable, "stream unavailable", err))
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logging.FromContext(r.Context()).Warn("event stream not supported", "error", err)
		return
	}

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case tasks, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := json.Marshal(toDTOs(tasks, h.Now()))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: tasks\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
