package repository_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/repository"
)

func TestTaskPatch_Apply(t *testing.T) {
	deadline := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	pre := deadline.Add(-72 * time.Hour)
	base := &entity.Task{
		ID:                "t1",
		Title:             "Old",
		Deadline:          deadline,
		PreSubmissionDate: &pre,
		Status:            entity.StatusPending,
		Priority:          entity.PriorityLow,
	}

	title := "New"
	status := entity.StatusCompleted
	got := repository.TaskPatch{Title: &title, Status: &status}.Apply(base)

	want := base.Clone()
	want.Title = "New"
	want.Status = entity.StatusCompleted
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
	if base.Title != "Old" {
		t.Error("Apply mutated its input")
	}
}

func TestTaskPatch_ClearPreSubmission(t *testing.T) {
	pre := time.Now()
	other := pre.Add(time.Hour)
	got := repository.TaskPatch{ClearPreSubmission: true, PreSubmissionDate: &other}.
		Apply(&entity.Task{PreSubmissionDate: &pre})
	if got.PreSubmissionDate != nil {
		t.Errorf("PreSubmissionDate = %v, want nil", got.PreSubmissionDate)
	}
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	if !(repository.TaskPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	b := true
	if (repository.TaskPatch{HasInfoSession: &b}).IsEmpty() {
		t.Error("patch with field should not be empty")
	}
}

func TestChangeKind_String(t *testing.T) {
	for kind, want := range map[repository.ChangeKind]string{
		repository.ChangeAdded:    "added",
		repository.ChangeModified: "modified",
		repository.ChangeRemoved:  "removed",
		repository.ChangeKind(9):  "unknown",
	} {
		if got := kind.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
