// Package memory provides an in-process TaskRepository used by the batch CLI
// and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/repository"
)

// TaskRepo stores tasks in a map guarded by a RWMutex. Returned tasks are copies.
type TaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]*entity.Task
	now   func() time.Time
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{
		tasks: make(map[string]*entity.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for CreatedAt/UpdatedAt.
func (r *TaskRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

var _ repository.TaskRepository = (*TaskRepo)(nil)

func (r *TaskRepo) Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := &entity.Task{
		ID:                   uuid.NewString(),
		Title:                draft.Title,
		Description:          draft.Description,
		Category:             draft.Category,
		Deadline:             draft.Deadline,
		Priority:             draft.Priority,
		Status:               draft.Status,
		Source:               draft.Source,
		HasInfoSession:       draft.HasInfoSession,
		RequiresRegistration: draft.RequiresRegistration,
		CreatedAt:            r.now(),
	}
	if draft.PreSubmissionDate != nil {
		p := *draft.PreSubmissionDate
		t.PreSubmissionDate = &p
	}
	r.tasks[t.ID] = t
	return t.Clone(), nil
}

func (r *TaskRepo) Get(ctx context.Context, id string) (*entity.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return t.Clone(), nil
}

func (r *TaskRepo) List(ctx context.Context) ([]*entity.Task, error) {
	r.mu.RLock()
	out := make([]*entity.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TaskRepo) Update(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("Update: %w", entity.ErrNotFound)
	}
	next := patch.Apply(t)
	ts := r.now()
	next.UpdatedAt = &ts
	r.tasks[id] = next
	return next.Clone(), nil
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepo) FindBySource(ctx context.Context, source string, limit int) ([]*entity.Task, error) {
	all, _ := r.List(ctx)
	out := make([]*entity.Task, 0, 1)
	for _, t := range all {
		if limit > 0 && len(out) >= limit {
			break
		}
		if t.Source == source {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TaskRepo) ExistingSources(ctx context.Context, sources []string) (map[string]bool, error) {
	want := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		want[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool)
	for _, t := range r.tasks {
		if _, ok := want[t.Source]; ok {
			out[t.Source] = true
		}
	}
	return out, nil
}
