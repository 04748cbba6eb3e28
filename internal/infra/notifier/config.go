package notifier

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gazette-tasks/internal/pkg/config"
)

const defaultWebhookTimeout = 30 * time.Second

// webhookRule describes where a service's incoming webhooks live.
type webhookRule struct {
	service    string
	hosts      []string
	pathPrefix string
}

var (
	slackRule   = webhookRule{service: "Slack", hosts: []string{"hooks.slack.com"}, pathPrefix: "/services/"}
	discordRule = webhookRule{service: "Discord", hosts: []string{"discord.com", "discordapp.com"}, pathPrefix: "/api/webhooks/"}
)

func (r webhookRule) check(raw string) error {
	if raw == "" {
		return fmt.Errorf("%s webhook URL is empty", r.service)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s webhook URL is malformed", r.service)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%s webhook URL must use HTTPS", r.service)
	}
	hostOK := false
	for _, h := range r.hosts {
		if u.Host == h {
			hostOK = true
			break
		}
	}
	if !hostOK {
		return fmt.Errorf("invalid %s webhook host %q", r.service, u.Host)
	}
	if !strings.HasPrefix(u.Path, r.pathPrefix) {
		return fmt.Errorf("invalid %s webhook path", r.service)
	}
	return nil
}

// load reads <PREFIX>_ENABLED, <PREFIX>_WEBHOOK_URL and <PREFIX>_TIMEOUT.
// An invalid URL disables the channel instead of failing startup.
func (r webhookRule) load(prefix string, logger *slog.Logger) (enabled bool, webhookURL string, timeout time.Duration) {
	if !config.GetEnvBool(prefix+"_ENABLED", false) {
		return false, "", 0
	}
	webhookURL = config.GetEnvString(prefix+"_WEBHOOK_URL", "")
	if err := r.check(webhookURL); err != nil {
		logger.Warn("webhook misconfigured, disabling notifications",
			slog.String("service", r.service),
			slog.String("reason", err.Error()))
		return false, "", 0
	}
	timeout = config.GetEnvDuration(prefix+"_TIMEOUT", defaultWebhookTimeout)
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return true, webhookURL, timeout
}

// LoadSlackConfigFromEnv reads SLACK_ENABLED, SLACK_WEBHOOK_URL and SLACK_TIMEOUT.
func LoadSlackConfigFromEnv(logger *slog.Logger) SlackConfig {
	enabled, u, timeout := slackRule.load("SLACK", logger)
	return SlackConfig{Enabled: enabled, WebhookURL: u, Timeout: timeout}
}

// LoadDiscordConfigFromEnv reads DISCORD_ENABLED, DISCORD_WEBHOOK_URL and DISCORD_TIMEOUT.
func LoadDiscordConfigFromEnv(logger *slog.Logger) DiscordConfig {
	enabled, u, timeout := discordRule.load("DISCORD", logger)
	return DiscordConfig{Enabled: enabled, WebhookURL: u, Timeout: timeout}
}
