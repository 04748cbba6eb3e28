package repository

import (
	"context"

	"gazette-tasks/internal/domain/entity"
)

// ChangeKind identifies the effect of a single change on the collection.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one delta. For ChangeRemoved only Task.ID is meaningful.
type Change struct {
	Kind ChangeKind
	Task *entity.Task
}

// ChangeBatch is applied atomically by consumers. A Reset batch replaces the
// whole collection with the added tasks it carries.
type ChangeBatch struct {
	Reset   bool
	Changes []Change
}

// Subscription delivers ordered change batches until closed.
type Subscription interface {
	Changes() <-chan ChangeBatch
	Close() error
}

// ChangeFeed is a live subscription to the full tasks collection.
type ChangeFeed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}
