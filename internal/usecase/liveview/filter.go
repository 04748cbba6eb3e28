package liveview

import "gazette-tasks/internal/domain/entity"

// All is the wildcard filter value.
const All = "All"

// Filter narrows the projection. Empty fields and All match everything.
type Filter struct {
	Category entity.Category
	Priority entity.Priority
	Status   entity.Status
}

func (f Filter) match(t *entity.Task) bool {
	if f.Category != "" && f.Category != All && t.Category != f.Category {
		return false
	}
	if f.Priority != "" && f.Priority != All && t.Priority != f.Priority {
		return false
	}
	if f.Status != "" && f.Status != All && t.Status != f.Status {
		return false
	}
	return true
}

// Filter returns the matching tasks in deadline order.
func (v *View) Filter(f Filter) []*entity.Task {
	all := v.Tasks()
	out := make([]*entity.Task, 0, len(all))
	for _, t := range all {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}
