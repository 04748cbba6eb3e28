package task

import (
	"encoding/json"
	"net/http"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/handler/http/respond"
)

type createRequest struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	Deadline             string `json:"deadline"`
	PreSubmissionDate    string `json:"preSubmissionDate"`
	Priority             string `json:"priority"`
	Source               string `json:"source"`
	HasInfoSession       bool   `json:"hasInfoSession"`
	RequiresRegistration bool   `json:"requiresRegistration"`
}

func (req createRequest) draft() (entity.TaskDraft, error) {
	d := entity.TaskDraft{
		Title:                req.Title,
		Description:          req.Description,
		Category:             loose(req.Category, entity.ParseCategory),
		Priority:             loose(req.Priority, entity.ParsePriority),
		Source:               req.Source,
		HasInfoSession:       req.HasInfoSession,
		RequiresRegistration: req.RequiresRegistration,
	}
	if req.Deadline != "" {
		t, err := parseDate("deadline", req.Deadline)
		if err != nil {
			return d, err
		}
		d.Deadline = t
	}
	if req.PreSubmissionDate != "" {
		t, err := parseDate("preSubmissionDate", req.PreSubmissionDate)
		if err != nil {
			return d, err
		}
		d.PreSubmissionDate = &t
	}
	return d, nil
}

// CreateHandler serves POST /tasks: 201 {"id": ...}, 400 on validation
// errors, 503 while offline.
type CreateHandler struct{ Svc Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errInvalidParam("body"))
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := h.Svc.AddTask(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]string{"id": t.ID})
}
