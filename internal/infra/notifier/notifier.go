// Package notifier posts announcements of newly ingested tasks to chat
// webhooks. Each notifier rate limits itself; a failed post is returned to
// the caller and not retried.
package notifier

import (
	"context"

	"gazette-tasks/internal/domain/entity"
)

// Notifier announces a task.
type Notifier interface {
	NotifyTask(ctx context.Context, task *entity.Task) error
}

// NoOpNotifier is used when a channel is disabled.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) NotifyTask(context.Context, *entity.Task) error {
	return nil
}
