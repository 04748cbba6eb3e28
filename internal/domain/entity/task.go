// Package entity defines the core domain entities and validation logic for the application.
// It contains the Task record derived from gazette notices, the transient GazetteEntry
// scraped from the publication page, and the domain-specific errors shared by every layer.
package entity

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a task by the subject of its gazette notice.
type Category string

const (
	CategoryLegal          Category = "Legal"
	CategoryAdministrative Category = "Administrative"
	CategoryFinancial      Category = "Financial"
	CategoryRegulatory     Category = "Regulatory"
	CategoryOther          Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryLegal,
	CategoryAdministrative,
	CategoryFinancial,
	CategoryRegulatory,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Priority is the urgency assigned to a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Status is the workflow state of a task. Transitions are driven by explicit
// user action only; any status may follow any other.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusOverdue    Status = "Overdue"
)

// Statuses lists every status.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusOverdue}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// parseEnum matches raw against values ignoring case and surrounding spaces.
func parseEnum[T ~string](kind, raw string, values []T) (T, error) {
	raw = strings.TrimSpace(raw)
	for _, v := range values {
		if strings.EqualFold(string(v), raw) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, kind, raw)
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) { return parseEnum("category", s, Categories) }

// ParsePriority accepts a priority name in any case.
func ParsePriority(s string) (Priority, error) { return parseEnum("priority", s, Priorities) }

// ParseStatus accepts a status name in any case. "InProgress" is accepted
// for "In Progress".
func ParseStatus(s string) (Status, error) {
	if strings.EqualFold(strings.TrimSpace(s), "inprogress") {
		return StatusInProgress, nil
	}
	return parseEnum("status", s, Statuses)
}

// Task is a persisted, actionable record derived from a gazette notice or entered manually.
type Task struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Category             Category   `json:"category"`
	Deadline             time.Time  `json:"deadline"`
	PreSubmissionDate    *time.Time `json:"preSubmissionDate,omitempty"`
	Priority             Priority   `json:"priority"`
	Status               Status     `json:"status"`
	Source               string     `json:"source"`
	HasInfoSession       bool       `json:"hasInfoSession"`
	RequiresRegistration bool       `json:"requiresRegistration"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            *time.Time `json:"updatedAt,omitempty"`
}

// IsOverdue reports whether the task's deadline has passed without completion.
// It is a presentation flag and never changes the stored Status.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline.Before(now) && t.Status != StatusCompleted
}

// Equal reports whether t and o hold the same values. Timestamps are compared
// with time.Time.Equal so location differences are ignored.
func (t *Task) Equal(o *Task) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.ID == o.ID &&
		t.Title == o.Title &&
		t.Description == o.Description &&
		t.Category == o.Category &&
		t.Deadline.Equal(o.Deadline) &&
		equalTimePtr(t.PreSubmissionDate, o.PreSubmissionDate) &&
		t.Priority == o.Priority &&
		t.Status == o.Status &&
		t.Source == o.Source &&
		t.HasInfoSession == o.HasInfoSession &&
		t.RequiresRegistration == o.RequiresRegistration &&
		t.CreatedAt.Equal(o.CreatedAt) &&
		equalTimePtr(t.UpdatedAt, o.UpdatedAt)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Draft returns the mutable fields of t as a TaskDraft.
func (t *Task) Draft() TaskDraft {
	return TaskDraft{
		Title:                t.Title,
		Description:          t.Description,
		Category:             t.Category,
		Deadline:             t.Deadline,
		PreSubmissionDate:    t.PreSubmissionDate,
		Priority:             t.Priority,
		Status:               t.Status,
		Source:               t.Source,
		HasInfoSession:       t.HasInfoSession,
		RequiresRegistration: t.RequiresRegistration,
	}
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	c := *t
	if t.PreSubmissionDate != nil {
		p := *t.PreSubmissionDate
		c.PreSubmissionDate = &p
	}
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		c.UpdatedAt = &u
	}
	return &c
}

// TaskDraft is a task that has not been persisted yet. Storage assigns ID and CreatedAt.
type TaskDraft struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Category             Category   `json:"category"`
	Deadline             time.Time  `json:"deadline"`
	PreSubmissionDate    *time.Time `json:"preSubmissionDate,omitempty"`
	Priority             Priority   `json:"priority"`
	Status               Status     `json:"status"`
	Source               string     `json:"source"`
	HasInfoSession       bool       `json:"hasInfoSession"`
	RequiresRegistration bool       `json:"requiresRegistration"`
}

// Validate checks the draft for required fields, known enum values and date ordering.
// It returns a *ValidationError describing the first problem found.
func (d *TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Message: "Description is required"}
	}
	if d.Deadline.IsZero() {
		return &ValidationError{Field: "deadline", Message: "Deadline is required"}
	}
	if strings.TrimSpace(d.Source) == "" {
		return &ValidationError{Field: "source", Message: "Source is required"}
	}
	if d.PreSubmissionDate != nil && !d.PreSubmissionDate.Before(d.Deadline) {
		return &ValidationError{Field: "preSubmissionDate", Message: "Pre-submission date must be before deadline"}
	}
	if !d.Category.Valid() {
		return &ValidationError{Field: "category", Message: "unknown category " + string(d.Category)}
	}
	if !d.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "unknown priority " + string(d.Priority)}
	}
	if !d.Status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status " + string(d.Status)}
	}
	return nil
}

// ApplyDefaults fills empty enum fields with the values used for manual entry.
func (d *TaskDraft) ApplyDefaults() {
	if d.Category == "" {
		d.Category = CategoryOther
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
}
