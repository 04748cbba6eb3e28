package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gazette-tasks/internal/domain/entity"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	Enabled bool
	// WebhookURL includes the authentication token; never log it.
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier rate limits to 30 requests per minute with a burst of 3.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(0.5, 3),
	}
}

// DiscordWebhookPayload is the JSON body sent to the webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is a Discord embed message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordEmbedField is an inline name/value pair.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter is the footer of an embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	discordSuffix        = "..."

	// one color per priority
	colorHigh   = 0xED4245
	colorMedium = 0xFEE75C
	colorLow    = 0x57F287
)

func priorityColor(p entity.Priority) int {
	switch p {
	case entity.PriorityHigh:
		return colorHigh
	case entity.PriorityLow:
		return colorLow
	default:
		return colorMedium
	}
}

func (d *DiscordNotifier) buildPayload(task *entity.Task) DiscordWebhookPayload {
	title := task.Title
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	fields := []DiscordEmbedField{
		{Name: "Category", Value: string(task.Category), Inline: true},
		{Name: "Priority", Value: string(task.Priority), Inline: true},
		{Name: "Deadline", Value: task.Deadline.Format("2006-01-02"), Inline: true},
	}
	if task.PreSubmissionDate != nil {
		fields = append(fields, DiscordEmbedField{Name: "Pre-submission", Value: task.PreSubmissionDate.Format("2006-01-02"), Inline: true})
	}

	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{{
			Title:       title,
			Description: truncate(task.Description, maxDescriptionLength, discordSuffix),
			URL:         task.Source,
			Color:       priorityColor(task.Priority),
			Fields:      fields,
			Footer:      DiscordEmbedFooter{Text: "Gazette tasks • " + string(task.Status)},
			Timestamp:   task.CreatedAt.UTC().Format(time.RFC3339),
		}},
	}
}

// NotifyTask posts one embed for task.
func (d *DiscordNotifier) NotifyTask(ctx context.Context, task *entity.Task) error {
	requestID := requestIDFrom(ctx)

	if err := d.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	if err := postJSON(ctx, d.httpClient, d.config.WebhookURL, "Discord", d.buildPayload(task)); err != nil {
		slog.Warn("Discord notification failed",
			slog.String("request_id", requestID),
			slog.String("task_id", task.ID),
			slog.Any("error", err))
		return err
	}

	slog.Info("Discord notification sent",
		slog.String("request_id", requestID),
		slog.String("task_id", task.ID))
	return nil
}
