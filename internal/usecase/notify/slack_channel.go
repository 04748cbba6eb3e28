package notify

import (
	"context"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/infra/notifier"
)

// SlackChannel adapts notifier.SlackNotifier to Channel.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewSlackChannel falls back to a NoOpNotifier when Slack is disabled.
func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier = notifier.NewNoOpNotifier()
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	}
	return &SlackChannel{notifier: n, enabled: config.Enabled}
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) IsEnabled() bool { return c.enabled }

func (c *SlackChannel) Send(ctx context.Context, task *entity.Task) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if err := validateTask(task); err != nil {
		return err
	}
	return c.notifier.NotifyTask(ctx, task)
}
