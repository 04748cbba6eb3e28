package task

import (
	"net/http"

	"gazette-tasks/internal/handler/http/pathutil"
	"gazette-tasks/internal/handler/http/respond"
)

// DeleteHandler serves DELETE /tasks/{id}: 204, or 404 "task not found".
type DeleteHandler struct{ Svc Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseTaskID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.DeleteTask(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
