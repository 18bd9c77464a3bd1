package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/predictr/pkg/data"
	"github.com/urfave/cli/v3"
)

const limitFlagName = "limit"

func newHistoryCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded predictions, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    appFlagName,
				Aliases: []string{"a"},
				Usage:   "Only list predictions of this app (optional, default: all apps)",
			},
			&cli.IntFlag{
				Name:    limitFlagName,
				Aliases: []string{"l"},
				Usage:   "Maximum number of predictions to list",
				Value:   data.ListLimitDefault,
			},
		},
		Action: cmdHistory,
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Print the number of recorded predictions per app",
				Action: cmdHistoryStats,
			},
			{
				Name:      "show",
				Usage:     "Print one recorded prediction",
				ArgsUsage: "<id>",
				Action:    cmdHistoryShow,
			},
		},
	}
}

func cmdHistory(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	list, err := data.ListPredictions(cfg.DB, cmd.String(appFlagName), cmd.Int(limitFlagName))
	if err != nil {
		return err
	}
	return encode(cmd, list)
}

func cmdHistoryStats(_ context.Context, cmd *cli.Command) error {
	stats, err := data.GetPredictionStats(getConfig(cmd).DB)
	if err != nil {
		return err
	}
	return encode(cmd, stats)
}

func cmdHistoryShow(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("prediction id required")
	}
	p, err := data.GetPrediction(getConfig(cmd).DB, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("no prediction with id %s", id)
		}
		return err
	}
	return encode(cmd, p)
}
