package config

import (
	"log/slog"

	"github.com/doctriage-lab/grammateus/pkg/service/notify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for Slack notification configuration
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting notifications)",
			Category:    "Slack",
			Sources:     cli.EnvVars("GRAMMATEUS_SLACK_BOT_TOKEN"),
			Destination: &x.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID for high urgency notifications",
			Category:    "Slack",
			Sources:     cli.EnvVars("GRAMMATEUS_SLACK_CHANNEL"),
			Destination: &x.channelID,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channelID),
	)
}

// IsConfigured reports whether both token and channel are set
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// Configure creates the notification service. Returns nil when Slack is not
// configured; notifications are then disabled.
func (x *Slack) Configure() (notify.Service, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if x.botToken == "" || x.channelID == "" {
		return nil, goerr.New("slack-bot-token and slack-channel must be set together")
	}

	return notify.New(x.botToken, x.channelID)
}
