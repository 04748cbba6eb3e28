package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gazette-tasks/internal/domain/entity"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	Enabled bool
	// WebhookURL includes the authentication token; never log it.
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts Block Kit messages to an Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier rate limits to 1 message per second, the webhook's limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload is the JSON body sent to the webhook.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is a Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Fields   []SlackTextObject `json:"fields,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	slackSuffix          = "..."
)

func (s *SlackNotifier) buildPayload(task *entity.Task) SlackWebhookPayload {
	fallback := truncate(fmt.Sprintf("New gazette task: %s", task.Title), maxFallbackLength, slackSuffix)

	section := fmt.Sprintf("*<%s|%s>*\n\n%s", task.Source, task.Title, task.Description)
	section = truncate(section, maxSectionTextLength, slackSuffix)

	fields := []SlackTextObject{
		{Type: "mrkdwn", Text: "*Category*\n" + string(task.Category)},
		{Type: "mrkdwn", Text: "*Priority*\n" + string(task.Priority)},
		{Type: "mrkdwn", Text: "*Deadline*\n" + task.Deadline.Format("2006-01-02")},
	}
	if task.PreSubmissionDate != nil {
		fields = append(fields, SlackTextObject{Type: "mrkdwn", Text: "*Pre-submission*\n" + task.PreSubmissionDate.Format("2006-01-02")})
	}

	return SlackWebhookPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{Type: "section", Text: &SlackTextObject{Type: "mrkdwn", Text: section}},
			{Type: "section", Fields: fields},
			{Type: "context", Elements: []SlackTextObject{{Type: "mrkdwn", Text: "Status: " + string(task.Status)}}},
		},
	}
}

// NotifyTask posts one message for task.
func (s *SlackNotifier) NotifyTask(ctx context.Context, task *entity.Task) error {
	requestID := requestIDFrom(ctx)

	if err := s.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	if err := postJSON(ctx, s.httpClient, s.config.WebhookURL, "Slack", s.buildPayload(task)); err != nil {
		slog.Warn("Slack notification failed",
			slog.String("request_id", requestID),
			slog.String("task_id", task.ID),
			slog.Any("error", err))
		return err
	}

	slog.Info("Slack notification sent",
		slog.String("request_id", requestID),
		slog.String("task_id", task.ID))
	return nil
}
