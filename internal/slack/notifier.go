// Package slack posts urgent-email alerts to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/teemow/inboxtriage/internal/logging"
)

// MaxBodyRunes is how much of the email body an alert carries.
const MaxBodyRunes = 1000

// Notifier posts alerts to one channel.
type Notifier struct {
	api       *slack.Client
	channelID string
	logger    *slog.Logger
}

// NewNotifier creates a notifier for channelID. Pass slack.OptionAPIURL to
// point it at another API endpoint.
func NewNotifier(token, channelID string, logger *slog.Logger, opts ...slack.Option) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("slack bot token is required")
	}
	if channelID == "" {
		return nil, fmt.Errorf("slack channel id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		api:       slack.New(token, opts...),
		channelID: channelID,
		logger:    logging.WithService(logger, "slack"),
	}, nil
}

// FormatAlert renders the alert text.
func FormatAlert(subject, sender, body string) string {
	return fmt.Sprintf(":rotating_light: *URGENT EMAIL*\n*From:* %s\n*Subject:* %s\n\n%s",
		sender, subject, truncateRunes(body, MaxBodyRunes))
}

// Post sends the alert and returns the message timestamp.
func (n *Notifier) Post(ctx context.Context, subject, sender, body string) (string, error) {
	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(FormatAlert(subject, sender, body), false))
	if err != nil {
		return "", fmt.Errorf("failed to post slack message: %w", err)
	}
	return ts, nil
}

// Notify sends the alert.
func (n *Notifier) Notify(ctx context.Context, subject, sender, body string) error {
	ts, err := n.Post(ctx, subject, sender, body)
	if err != nil {
		return err
	}
	n.logger.Info("slack alert posted", "ts", ts)
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
