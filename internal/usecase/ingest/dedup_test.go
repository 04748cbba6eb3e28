package ingest_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/usecase/ingest"
)

func draftsFor(sources ...string) []entity.TaskDraft {
	out := make([]entity.TaskDraft, 0, len(sources))
	for _, s := range sources {
		out = append(out, entity.TaskDraft{Title: s, Source: s})
	}
	return out
}

func sourcesOf(drafts []entity.TaskDraft) []string {
	out := make([]string, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, d.Source)
	}
	return out
}

func TestAdmit(t *testing.T) {
	tests := []struct {
		name     string
		drafts   []entity.TaskDraft
		existing map[string]bool
		want     []string
	}{
		{
			name:     "nothing stored",
			drafts:   draftsFor("https://g/1", "https://g/2"),
			existing: nil,
			want:     []string{"https://g/1", "https://g/2"},
		},
		{
			name:     "stored sources dropped",
			drafts:   draftsFor("https://g/1", "https://g/2", "https://g/3"),
			existing: map[string]bool{"https://g/2": true},
			want:     []string{"https://g/1", "https://g/3"},
		},
		{
			name:     "duplicates within the batch",
			drafts:   draftsFor("https://g/1", "https://g/1", "https://g/2", "https://g/1"),
			existing: map[string]bool{},
			want:     []string{"https://g/1", "https://g/2"},
		},
		{
			name:     "exact string match only",
			drafts:   draftsFor("http://g/1", "https://g/1/"),
			existing: map[string]bool{"https://g/1": true},
			want:     []string{"http://g/1", "https://g/1/"},
		},
		{
			name:     "all stored",
			drafts:   draftsFor("https://g/1"),
			existing: map[string]bool{"https://g/1": true},
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sourcesOf(ingest.Admit(tt.drafts, tt.existing))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("admitted mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdmit_OutputProperties(t *testing.T) {
	drafts := draftsFor("a", "b", "a", "c", "d", "b", "e", "c")
	existing := map[string]bool{"c": true, "x": true}

	out := ingest.Admit(drafts, existing)

	seen := map[string]bool{}
	for _, d := range out {
		if existing[d.Source] {
			t.Errorf("admitted stored source %q", d.Source)
		}
		if seen[d.Source] {
			t.Errorf("admitted %q twice", d.Source)
		}
		seen[d.Source] = true
	}
	if len(existing) != 2 {
		t.Error("existing snapshot must not be modified")
	}
}
