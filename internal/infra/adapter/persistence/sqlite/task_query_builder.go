package sqlite

import (
	"strings"
	"time"

	"gazette-tasks/internal/repository"
)

// buildSetClause renders the SET list of a partial update with "?" placeholders.
// updated_at is always assigned last.
func buildSetClause(patch repository.TaskPatch, updatedAt time.Time) (string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Category != nil {
		set("category", string(*patch.Category))
	}
	if patch.Deadline != nil {
		set("deadline", patch.Deadline.UTC())
	}
	switch {
	case patch.ClearPreSubmission:
		set("pre_submission_date", nil)
	case patch.PreSubmissionDate != nil:
		set("pre_submission_date", patch.PreSubmissionDate.UTC())
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Source != nil {
		set("source", *patch.Source)
	}
	if patch.HasInfoSession != nil {
		set("has_info_session", *patch.HasInfoSession)
	}
	if patch.RequiresRegistration != nil {
		set("requires_registration", *patch.RequiresRegistration)
	}
	set("updated_at", updatedAt.UTC())

	return strings.Join(sets, ", "), args
}
