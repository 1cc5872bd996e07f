// Package alert sends a best-effort Slack notification whenever a
// generation fails (SPEC_FULL.md §5.14). It is never on the critical
// path: a missing webhook URL disables it entirely, and a post failure
// is logged, never propagated to the caller.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"github.com/smilearc/casegen/internal/domain"
)

const postTimeout = 5 * time.Second

// Notifier posts ops alerts to a Slack incoming webhook. A Notifier
// with an empty WebhookURL is a no-op.
type Notifier struct {
	WebhookURL string
	Channel    string
	Logger     *logrus.Entry
}

// NewNotifier builds a Notifier, defaulting Logger when nil.
func NewNotifier(webhookURL, channel string, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Notifier{WebhookURL: webhookURL, Channel: channel, Logger: logger.WithField("component", "shared.alert")}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.WebhookURL != ""
}

// GenerationFailed fires a best-effort Slack post describing a failed
// generation. It never blocks the caller beyond postTimeout and never
// returns an error: failures are logged and swallowed.
func (n *Notifier) GenerationFailed(ctx context.Context, userID string, documentKind domain.DocumentKind, generationID, reason string) {
	if !n.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	msg := &slack.WebhookMessage{
		Channel: n.Channel,
		Text: fmt.Sprintf(
			":rotating_light: Generation failed — kind=%s user=%s generation_id=%s reason=%s",
			documentKind, userID, generationID, reason,
		),
	}

	if err := slack.PostWebhookContext(ctx, n.WebhookURL, msg); err != nil {
		n.Logger.WithError(err).Warn("failed to post ops alert to slack")
	}
}
