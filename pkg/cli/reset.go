package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/predictr/pkg/data"
	"github.com/urfave/cli/v3"
)

const yesFlagName = "yes"

func newResetCmd() *cli.Command {
	return &cli.Command{
		Name:            "reset",
		Usage:           "Delete the prediction history",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    yesFlagName,
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: cmdReset,
	}
}

func cmdReset(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	w := cmd.Root().Writer

	if !cmd.Bool(yesFlagName) {
		fmt.Fprintf(w, "This will permanently delete all predictions in %s\n", redactDSN(cfg.Config.DB))
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		answer, err := readLine(cmd.Root().Reader)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.ToLower(answer) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	n, err := data.DeletePredictions(cfg.DB)
	if err != nil {
		return err
	}

	slog.Info("prediction history deleted", "db", redactDSN(cfg.Config.DB), "count", n)
	fmt.Fprintln(w, "Reset complete.")
	return nil
}
