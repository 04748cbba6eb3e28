// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"fmt"
	"strings"
	"time"

	"gazette-tasks/internal/repository"
)

// TaskQueryBuilder builds the dynamic parts of task queries using
// PostgreSQL numbered placeholders ($1, $2, etc.).
type TaskQueryBuilder struct{}

// NewTaskQueryBuilder creates a new query builder instance.
func NewTaskQueryBuilder() *TaskQueryBuilder {
	return &TaskQueryBuilder{}
}

// BuildSetClause renders the SET list for a partial update. updated_at is always
// the last assignment, so the returned args are never empty.
func (qb *TaskQueryBuilder) BuildSetClause(patch repository.TaskPatch, updatedAt time.Time) (clause string, args []interface{}) {
	var sets []string
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", string(*patch.Category))
	}
	if patch.Deadline != nil {
		add("deadline", *patch.Deadline)
	}
	if patch.ClearPreSubmission {
		add("pre_submission_date", nil)
	} else if patch.PreSubmissionDate != nil {
		add("pre_submission_date", *patch.PreSubmissionDate)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Source != nil {
		add("source", *patch.Source)
	}
	if patch.HasInfoSession != nil {
		add("has_info_session", *patch.HasInfoSession)
	}
	if patch.RequiresRegistration != nil {
		add("requires_registration", *patch.RequiresRegistration)
	}
	add("updated_at", updatedAt)

	return strings.Join(sets, ", "), args
}

// BuildInList renders "$start, $start+1, ..." for len(values) placeholders.
func (qb *TaskQueryBuilder) BuildInList(values []string, start int) (list string, args []interface{}) {
	placeholders := make([]string, len(values))
	args = make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}
