package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/handler/http/pathutil"
	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/repository"
)

// updateRequest distinguishes absent fields (nil) from an explicit null
// preSubmissionDate, which clears it.
type updateRequest struct {
	Title                *string         `json:"title"`
	Description          *string         `json:"description"`
	Category             *string         `json:"category"`
	Deadline             *string         `json:"deadline"`
	PreSubmissionDate    json.RawMessage `json:"preSubmissionDate"`
	Priority             *string         `json:"priority"`
	Status               *string         `json:"status"`
	Source               *string         `json:"source"`
	HasInfoSession       *bool           `json:"hasInfoSession"`
	RequiresRegistration *bool           `json:"requiresRegistration"`
}

func (req updateRequest) statusOnly() bool {
	return req.Status != nil && req.Title == nil && req.Description == nil &&
		req.Category == nil && req.Deadline == nil && req.PreSubmissionDate == nil &&
		req.Priority == nil && req.Source == nil && req.HasInfoSession == nil &&
		req.RequiresRegistration == nil
}

func (req updateRequest) patch() (repository.TaskPatch, error) {
	p := repository.TaskPatch{
		Title:                req.Title,
		Description:          req.Description,
		Source:               req.Source,
		HasInfoSession:       req.HasInfoSession,
		RequiresRegistration: req.RequiresRegistration,
	}
	if req.Category != nil {
		c := loose(*req.Category, entity.ParseCategory)
		p.Category = &c
	}
	if req.Priority != nil {
		pr := loose(*req.Priority, entity.ParsePriority)
		p.Priority = &pr
	}
	if req.Status != nil {
		s := loose(*req.Status, entity.ParseStatus)
		p.Status = &s
	}
	if req.Deadline != nil {
		t, err := parseDate("deadline", *req.Deadline)
		if err != nil {
			return p, err
		}
		p.Deadline = &t
	}
	if req.PreSubmissionDate != nil {
		if bytes.Equal(bytes.TrimSpace(req.PreSubmissionDate), []byte("null")) {
			p.ClearPreSubmission = true
		} else {
			var s string
			if err := json.Unmarshal(req.PreSubmissionDate, &s); err != nil {
				return p, &entity.ValidationError{Field: "preSubmissionDate", Message: "preSubmissionDate must be a string or null"}
			}
			t, err := parseDate("preSubmissionDate", s)
			if err != nil {
				return p, err
			}
			p.PreSubmissionDate = &t
		}
	}
	return p, nil
}

// UpdateHandler serves PATCH /tasks/{id}. A body carrying only status goes
// through UpdateStatus; anything else is a general field update.
type UpdateHandler struct {
	Svc Service
	Now func() time.Time
}

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseTaskID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errInvalidParam("body"))
		return
	}

	var t *entity.Task
	if req.statusOnly() {
		t, err = h.Svc.UpdateStatus(r.Context(), id, loose(*req.Status, entity.ParseStatus))
	} else {
		var patch repository.TaskPatch
		patch, err = req.patch()
		if err == nil {
			t, err = h.Svc.UpdateTask(r.Context(), id, patch)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(t, h.Now()))
}
