package task

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/usecase/liveview"
)

// DTO is a task as returned by the API, with the derived overdue flag.
type DTO struct {
	*entity.Task
	Overdue bool `json:"overdue"`
}

func toDTO(t *entity.Task, now time.Time) DTO {
	return DTO{Task: t, Overdue: t.IsOverdue(now)}
}

func toDTOs(tasks []*entity.Task, now time.Time) []DTO {
	out := make([]DTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toDTO(t, now))
	}
	return out
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, &entity.ValidationError{Field: field, Message: field + " must be an RFC3339 timestamp or YYYY-MM-DD date"}
}

// loose returns the canonical spelling when parse knows raw and raw itself
// otherwise, leaving the rejection to draft validation.
func loose[T ~string](raw string, parse func(string) (T, error)) T {
	if v, err := parse(raw); err == nil {
		return v
	}
	return T(raw)
}

// writeError maps use-case errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, liveview.ErrOffline):
		var ce *liveview.ConnectivityError
		msg := "offline"
		if errors.As(err, &ce) {
			msg = ce.Error()
		}
		respond.SafeError(w, http.StatusServiceUnavailable, respond.NewAppError(http.StatusServiceUnavailable, msg, nil))
	case errors.Is(err, entity.ErrNotFound):
		respond.JSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
	case errors.Is(err, entity.ErrInvalidInput):
		respond.SafeError(w, http.StatusBadRequest, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
