package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for critical risk notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("BASTION_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID to post critical risk notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("BASTION_SLACK_CHANNEL_ID"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
	)
}

// IsConfigured checks if Slack notification is enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure creates a Slack notifier. It returns nil without error when no
// bot token is set.
func (x *Slack) Configure(baseURL string) (interfaces.Notifier, error) {
	if x.botToken == "" {
		return nil, nil
	}
	if x.channelID == "" {
		return nil, goerr.Wrap(ErrMissingOption, "--slack-channel-id is required with --slack-bot-token",
			goerr.V(OptionKey, "slack-channel-id"))
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}

	var opts []slack.NotifierOption
	if baseURL != "" {
		opts = append(opts, slack.WithBaseURL(baseURL))
	}
	notifier, err := slack.NewNotifier(svc, x.channelID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}
	return notifier, nil
}
