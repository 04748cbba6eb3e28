package entity

import (
	"errors"
	"testing"
	"time"
)

func validDraft() TaskDraft {
	deadline := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)
	pre := deadline.Add(-96 * time.Hour)
	return TaskDraft{
		Title:             "Budget circular",
		Description:       "Gazette notice from 1 March 2024. Source URL: https://www.gazette.gov.mv/iulaan/1",
		Category:          CategoryFinancial,
		Deadline:          deadline,
		PreSubmissionDate: &pre,
		Priority:          PriorityMedium,
		Status:            StatusPending,
		Source:            "https://www.gazette.gov.mv/iulaan/1",
	}
}

func TestTaskDraft_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *TaskDraft)
		wantField string
	}{
		{name: "valid draft", mutate: func(d *TaskDraft) {}},
		{name: "no pre-submission date", mutate: func(d *TaskDraft) { d.PreSubmissionDate = nil }},
		{name: "missing title", mutate: func(d *TaskDraft) { d.Title = "  " }, wantField: "title"},
		{name: "missing description", mutate: func(d *TaskDraft) { d.Description = "" }, wantField: "description"},
		{name: "missing deadline", mutate: func(d *TaskDraft) { d.Deadline = time.Time{} }, wantField: "deadline"},
		{name: "missing source", mutate: func(d *TaskDraft) { d.Source = "" }, wantField: "source"},
		{
			name: "pre-submission equal to deadline",
			mutate: func(d *TaskDraft) {
				p := d.Deadline
				d.PreSubmissionDate = &p
			},
			wantField: "preSubmissionDate",
		},
		{
			name: "pre-submission after deadline",
			mutate: func(d *TaskDraft) {
				p := d.Deadline.Add(time.Hour)
				d.PreSubmissionDate = &p
			},
			wantField: "preSubmissionDate",
		},
		{name: "unknown category", mutate: func(d *TaskDraft) { d.Category = "Misc" }, wantField: "category"},
		{name: "unknown priority", mutate: func(d *TaskDraft) { d.Priority = "Urgent" }, wantField: "priority"},
		{name: "unknown status", mutate: func(d *TaskDraft) { d.Status = "Done" }, wantField: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestTaskDraft_ApplyDefaults(t *testing.T) {
	d := TaskDraft{Category: CategoryLegal}
	d.ApplyDefaults()
	if d.Category != CategoryLegal || d.Priority != PriorityMedium || d.Status != StatusPending {
		t.Errorf("ApplyDefaults() = %+v", d)
	}
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		deadline time.Time
		status   Status
		want     bool
	}{
		{"past deadline pending", now.Add(-time.Hour), StatusPending, true},
		{"past deadline in progress", now.Add(-time.Hour), StatusInProgress, true},
		{"past deadline completed", now.Add(-time.Hour), StatusCompleted, false},
		{"future deadline", now.Add(time.Hour), StatusPending, false},
		{"future deadline marked overdue", now.Add(time.Hour), StatusOverdue, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Deadline: tt.deadline, Status: tt.status}
			if got := task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_CloneIsDeep(t *testing.T) {
	pre := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := &Task{ID: "a", PreSubmissionDate: &pre}
	c := orig.Clone()
	*c.PreSubmissionDate = pre.Add(time.Hour)
	if !orig.PreSubmissionDate.Equal(pre) {
		t.Error("Clone shares PreSubmissionDate with original")
	}
}

func TestEnumsValid(t *testing.T) {
	if !StatusInProgress.Valid() || Status("InProgress").Valid() {
		t.Error("status wire value must be \"In Progress\"")
	}
	if !CategoryRegulatory.Valid() || Category("").Valid() {
		t.Error("category validity")
	}
	if !PriorityLow.Valid() || Priority("low").Valid() {
		t.Error("priority validity is case sensitive")
	}
}

func TestTask_Equal(t *testing.T) {
	utc := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("MVT", 5*3600))

	a := &Task{ID: "1", Deadline: utc, Status: StatusPending}
	b := &Task{ID: "1", Deadline: local, Status: StatusPending}
	if !a.Equal(b) {
		t.Error("same instant in different zones should be equal")
	}

	b.Status = StatusCompleted
	if a.Equal(b) {
		t.Error("different status should not be equal")
	}

	pre := utc
	c := &Task{ID: "1", Deadline: utc, Status: StatusPending, PreSubmissionDate: &pre}
	if a.Equal(c) {
		t.Error("nil vs set PreSubmissionDate should not be equal")
	}

	var nilTask *Task
	if !nilTask.Equal(nil) || nilTask.Equal(a) {
		t.Error("nil handling")
	}
}

func TestParseEnums(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (string, error)
		in    string
		want  string
		ok    bool
	}{
		{"category lower", func(s string) (string, error) { c, err := ParseCategory(s); return string(c), err }, "legal", "Legal", true},
		{"category unknown", func(s string) (string, error) { c, err := ParseCategory(s); return string(c), err }, "Tax", "", false},
		{"priority padded", func(s string) (string, error) { p, err := ParsePriority(s); return string(p), err }, " HIGH ", "High", true},
		{"status spaced", func(s string) (string, error) { st, err := ParseStatus(s); return string(st), err }, "in progress", "In Progress", true},
		{"status compact", func(s string) (string, error) { st, err := ParseStatus(s); return string(st), err }, "InProgress", "In Progress", true},
		{"status unknown", func(s string) (string, error) { st, err := ParseStatus(s); return string(st), err }, "Done", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.in)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
