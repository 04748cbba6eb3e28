package respond

import (
	"regexp"
)

var (
	// DSN内のパスワード
	dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

	// webhook URLs carry their token in the path
	slackWebhookPattern   = regexp.MustCompile(`hooks\.slack\.com/services/[A-Za-z0-9/_-]+`)
	discordWebhookPattern = regexp.MustCompile(`discord(?:app)?\.com/api/webhooks/[A-Za-z0-9/_-]+`)
)

// SanitizeError masks credentials in err's message before it is logged.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = slackWebhookPattern.ReplaceAllString(msg, "hooks.slack.com/services/****")
	msg = discordWebhookPattern.ReplaceAllString(msg, "discord.com/api/webhooks/****")
	return msg
}
