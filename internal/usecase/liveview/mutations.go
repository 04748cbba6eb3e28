package liveview

import (
	"context"
	"fmt"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/observability/metrics"
	"gazette-tasks/internal/repository"
)

// AddTask validates draft, applies defaults and writes it. A new task always
// starts Pending whatever status the draft carries. The returned task is the
// store's confirmation; the projection catches up through the feed.
func (v *View) AddTask(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error) {
	draft.ApplyDefaults()
	draft.Status = entity.StatusPending
	if err := draft.Validate(); err != nil {
		metrics.RecordMutationRejected(string(OpAdd), "validation")
		return nil, err
	}
	if err := v.requireOnline(OpAdd); err != nil {
		return nil, err
	}
	t, err := v.store.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("AddTask: %w", err)
	}
	metrics.RecordTaskCreated("manual")
	return t, nil
}

// UpdateStatus sets the status of id. Any status may follow any other.
func (v *View) UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Task, error) {
	if err := v.requireOnline(OpUpdate); err != nil {
		return nil, err
	}
	if !status.Valid() {
		metrics.RecordMutationRejected(string(OpUpdate), "validation")
		return nil, &entity.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	t, err := v.store.Update(ctx, id, repository.TaskPatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("UpdateStatus: %w", err)
	}
	return t, nil
}

// UpdateTask applies a general field update after validating the merged task.
func (v *View) UpdateTask(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error) {
	if err := v.requireOnline(OpUpdate); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("UpdateTask: %w: empty update", entity.ErrInvalidInput)
	}

	current, err := v.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateTask: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("UpdateTask: %w", entity.ErrNotFound)
	}
	merged := patch.Apply(current).Draft()
	if err := merged.Validate(); err != nil {
		metrics.RecordMutationRejected(string(OpUpdate), "validation")
		return nil, err
	}

	t, err := v.store.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("UpdateTask: %w", err)
	}
	return t, nil
}

// DeleteTask removes id.
func (v *View) DeleteTask(ctx context.Context, id string) error {
	if err := v.requireOnline(OpDelete); err != nil {
		return err
	}
	if err := v.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	return nil
}

// Refresh runs one gazette ingestion and returns the number of new tasks.
func (v *View) Refresh(ctx context.Context) (int, error) {
	if err := v.requireOnline(OpRefresh); err != nil {
		return 0, err
	}
	if v.refresher == nil {
		return 0, ErrRefreshUnavailable
	}
	n, err := v.refresher.FetchGazetteData(ctx)
	if err != nil {
		return 0, fmt.Errorf("Refresh: %w", err)
	}
	return n, nil
}

// Overdue returns the loaded tasks whose deadline has passed at now and that
// are not completed.
func (v *View) Overdue(now time.Time) []*entity.Task {
	var out []*entity.Task
	for _, t := range v.Tasks() {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out
}
