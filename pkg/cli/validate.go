package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/doctriage-lab/grammateus/pkg/cli/config"
	"github.com/doctriage-lab/grammateus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate an intent workbook",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			book, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"intent_count", len(book.Intents),
				"path", appCfg.Path(),
			)
			for _, intent := range book.Intents {
				logger.Info("Intent validated",
					"id", intent.ID,
					"name", intent.Name,
					"field_count", len(intent.Fields),
				)
			}

			return nil
		},
	}
}
