package repository

import (
	"context"
	"time"

	"gazette-tasks/internal/domain/entity"
)

// TaskPatch is a partial update. Nil fields are left untouched.
// ClearPreSubmission removes the pre-submission date regardless of PreSubmissionDate.
type TaskPatch struct {
	Title                *string
	Description          *string
	Category             *entity.Category
	Deadline             *time.Time
	PreSubmissionDate    *time.Time
	ClearPreSubmission   bool
	Priority             *entity.Priority
	Status               *entity.Status
	Source               *string
	HasInfoSession       *bool
	RequiresRegistration *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Deadline == nil && p.PreSubmissionDate == nil && !p.ClearPreSubmission &&
		p.Priority == nil && p.Status == nil && p.Source == nil &&
		p.HasInfoSession == nil && p.RequiresRegistration == nil
}

// Apply returns a copy of t with the patch applied. UpdatedAt is left to the caller.
func (p TaskPatch) Apply(t *entity.Task) *entity.Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Deadline != nil {
		out.Deadline = *p.Deadline
	}
	if p.ClearPreSubmission {
		out.PreSubmissionDate = nil
	} else if p.PreSubmissionDate != nil {
		v := *p.PreSubmissionDate
		out.PreSubmissionDate = &v
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Source != nil {
		out.Source = *p.Source
	}
	if p.HasInfoSession != nil {
		out.HasInfoSession = *p.HasInfoSession
	}
	if p.RequiresRegistration != nil {
		out.RequiresRegistration = *p.RequiresRegistration
	}
	return out
}

// TaskRepository is the "tasks" collection contract.
type TaskRepository interface {
	// Create persists a draft; storage assigns ID and CreatedAt.
	Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error)
	// Get returns (nil, nil) if the task does not exist.
	Get(ctx context.Context, id string) (*entity.Task, error)
	// List returns every task ordered by deadline ascending.
	List(ctx context.Context) ([]*entity.Task, error)
	// Update applies patch and stamps UpdatedAt. Returns entity.ErrNotFound if absent.
	Update(ctx context.Context, id string, patch TaskPatch) (*entity.Task, error)
	// Delete returns entity.ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	FindBySource(ctx context.Context, source string, limit int) ([]*entity.Task, error)
	// ExistingSources はバッチで source 存在チェックを行う
	ExistingSources(ctx context.Context, sources []string) (map[string]bool, error)
}
