// Package task serves the task collection over HTTP, backed by the live view.
package task

import (
	"context"
	"net/http"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/repository"
	"gazette-tasks/internal/usecase/liveview"
)

// Service is the part of *liveview.View the handlers use.
type Service interface {
	Filter(f liveview.Filter) []*entity.Task
	Task(id string) (*entity.Task, bool)
	AddTask(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error)
	UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Task, error)
	UpdateTask(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Watch() (<-chan []*entity.Task, func(), error)
}

// Register mounts the task routes on mux. now stamps the derived overdue flag.
func Register(mux *http.ServeMux, svc Service, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	mux.Handle("GET    /tasks", ListHandler{Svc: svc, Now: now})
	mux.Handle("GET    /tasks/stream", StreamHandler{Svc: svc, Now: now, KeepAlive: 30 * time.Second})
	mux.Handle("GET    /tasks/{id}", GetHandler{Svc: svc, Now: now})
	mux.Handle("POST   /tasks", CreateHandler{Svc: svc})
	mux.Handle("PATCH  /tasks/{id}", UpdateHandler{Svc: svc, Now: now})
	mux.Handle("DELETE /tasks/{id}", DeleteHandler{Svc: svc})
}
