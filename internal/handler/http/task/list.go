package task

import (
	"net/http"
	"strconv"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/handler/http/pathutil"
	"gazette-tasks/internal/handler/http/respond"
	"gazette-tasks/internal/usecase/liveview"
)

// ListHandler serves GET /tasks.
//
// Query parameters category, priority and status narrow the list; "All" or an
// empty value matches everything. overdue=true keeps only overdue tasks.
type ListHandler struct {
	Svc Service
	Now func() time.Time
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	onlyOverdue := false
	if v := r.URL.Query().Get("overdue"); v != "" {
		onlyOverdue, err = strconv.ParseBool(v)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, errInvalidParam("overdue"))
			return
		}
	}

	now := h.Now()
	tasks := h.Svc.Filter(f)
	if onlyOverdue {
		kept := tasks[:0:0]
		for _, t := range tasks {
			if t.IsOverdue(now) {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	respond.JSON(w, http.StatusOK, toDTOs(tasks, now))
}

func parseFilter(r *http.Request) (liveview.Filter, error) {
	q := r.URL.Query()
	var f liveview.Filter

	if v := q.Get("category"); v != "" && v != liveview.All {
		c, err := entity.ParseCategory(v)
		if err != nil {
			return f, err
		}
		f.Category = c
	}
	if v := q.Get("priority"); v != "" && v != liveview.All {
		p, err := entity.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	if v := q.Get("status"); v != "" && v != liveview.All {
		s, err := entity.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = s
	}
	return f, nil
}

type paramError string

func (e paramError) Error() string { return "invalid " + string(e) + " parameter" }

func errInvalidParam(name string) error { return paramError(name) }

// GetHandler serves GET /tasks/{id} from the live view.
type GetHandler struct {
	Svc Service
	Now func() time.Time
}

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseTaskID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	t, ok := h.Svc.Task(id)
	if !ok {
		writeError(w, entity.ErrNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(t, h.Now()))
}
