// Package notify dispatches announcements of newly ingested tasks to the
// configured chat channels. Dispatch is asynchronous, bounded by a worker
// pool and guarded per channel by a circuit breaker.
package notify

import (
	"context"

	"gazette-tasks/internal/domain/entity"
)

// Channel represents a notification delivery channel (Slack, Discord).
//
// Implementations must be safe for concurrent use and must respect ctx.
// A failed Send is reported once; the service never retries it.
type Channel interface {
	// Name returns the lowercase channel identifier used in logs and metrics.
	Name() string

	// IsEnabled reports whether the channel receives notifications.
	IsEnabled() bool

	// Send announces task. It returns ErrChannelDisabled on a disabled
	// channel and ErrInvalidTask when task is nil or has no title.
	Send(ctx context.Context, task *entity.Task) error
}

func validateTask(task *entity.Task) error {
	if task == nil || task.Title == "" {
		return ErrInvalidTask
	}
	return nil
}
