package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

type SlackNotifier struct {
	client *slack.Client
}

// NewSlackNotifier creates a notifier posting with the given bot token.
// apiURL overrides the Slack Web API endpoint and is meant for tests; pass ""
// for the default.
func NewSlackNotifier(token, apiURL string) *SlackNotifier {
	var options []slack.Option
	if apiURL != "" {
		options = append(options, slack.OptionAPIURL(apiURL))
	}
	return &SlackNotifier{client: slack.New(token, options...)}
}

func (n *SlackNotifier) Send(ctx context.Context, msg Message) error {
	options := []slack.MsgOption{
		slack.MsgOptionText(msg.Text, false),
	}
	if msg.Username != "" {
		options = append(options, slack.MsgOptionUsername(msg.Username))
	}
	if msg.IconEmoji != "" {
		options = append(options, slack.MsgOptionIconEmoji(msg.IconEmoji))
	}

	channel, timestamp, err := n.client.PostMessageContext(ctx, msg.Channel, options...)
	if err != nil {
		return fmt.Errorf("%w: posting to %s: %w", ErrDelivery, msg.Channel, err)
	}

	slog.Debug("Slack message posted", "channel", channel, "ts", timestamp)
	return nil
}
