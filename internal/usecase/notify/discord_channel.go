package notify

import (
	"context"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/infra/notifier"
)

// DiscordChannel adapts notifier.DiscordNotifier to Channel.
type DiscordChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewDiscordChannel falls back to a NoOpNotifier when Discord is disabled.
func NewDiscordChannel(config notifier.DiscordConfig) *DiscordChannel {
	var n notifier.Notifier = notifier.NewNoOpNotifier()
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config)
	}
	return &DiscordChannel{notifier: n, enabled: config.Enabled}
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) IsEnabled() bool { return c.enabled }

func (c *DiscordChannel) Send(ctx context.Context, task *entity.Task) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if err := validateTask(task); err != nil {
		return err
	}
	return c.notifier.NotifyTask(ctx, task)
}
