package ingest

import "gazette-tasks/internal/domain/entity"

// Admit returns the drafts whose source is neither in existing nor already
// admitted earlier in the same call. Order is preserved. existing is only
// read; it is a snapshot taken before the call.
func Admit(drafts []entity.TaskDraft, existing map[string]bool) []entity.TaskDraft {
	admitted := make([]entity.TaskDraft, 0, len(drafts))
	seen := make(map[string]struct{}, len(drafts))
	for _, d := range drafts {
		if existing[d.Source] {
			continue
		}
		if _, dup := seen[d.Source]; dup {
			continue
		}
		seen[d.Source] = struct{}{}
		admitted = append(admitted, d)
	}
	return admitted
}

func sources(drafts []entity.TaskDraft) []string {
	out := make([]string, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, d.Source)
	}
	return out
}
