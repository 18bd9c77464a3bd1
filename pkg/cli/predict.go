package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mchmarny/predictr/pkg/data"
	"github.com/mchmarny/predictr/pkg/net"
	"github.com/mchmarny/predictr/pkg/predict"
	"github.com/urfave/cli/v3"
)

const (
	appFlagName    = "app"
	setFlagName    = "set"
	serverFlagName = "server"
	noSaveFlagName = "no-save"
)

func newPredictCmd() *cli.Command {
	return &cli.Command{
		Name:      "predict",
		Usage:     "Run one prediction and record it in history",
		ArgsUsage: "--app insurance --set age=30 --set gender=Male",
		Flags: []cli.Flag{
			appFlag(),
			&cli.StringSliceFlag{
				Name:    setFlagName,
				Aliases: []string{"s"},
				Usage:   "Field value as name=value, repeat per field (missing fields use defaults)",
			},
			&cli.StringFlag{
				Name:    serverFlagName,
				Usage:   "Predict through a running server at this URL instead of local artifacts",
				Sources: cli.EnvVars(envPrefix + "SERVER"),
			},
			&cli.BoolFlag{
				Name:  noSaveFlagName,
				Usage: "Do not record the prediction in history",
			},
		},
		Action: cmdPredict,
	}
}

func appFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    appFlagName,
		Aliases: []string{"a"},
		Usage:   fmt.Sprintf("App name [%s, %s]", predict.AppInsurance, predict.AppExam),
	}
}

// selectedApp returns the --app value, then the configured default app.
func selectedApp(cmd *cli.Command) string {
	if v := cmd.String(appFlagName); v != "" {
		return v
	}
	if v := getConfig(cmd).Config.DefaultApp; v != "" {
		return v
	}
	return predict.AppInsurance
}

func parseSet(list []string) (map[string]string, error) {
	values := make(map[string]string, len(list))
	for _, item := range list {
		k, v, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --%s value %q, expected name=value", setFlagName, item)
		}
		values[k] = v
	}
	return values, nil
}

func cmdPredict(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	app := selectedApp(cmd)

	values, err := parseSet(cmd.StringSlice(setFlagName))
	if err != nil {
		return err
	}

	if server := cmd.String(serverFlagName); server != "" {
		p, err := remotePredict(ctx, server, app, values)
		if err != nil {
			return err
		}
		return encode(cmd, p)
	}

	reg, err := predict.LoadRegistry(cfg.Config.ArtifactDir, app)
	if err != nil {
		return err
	}
	pl, err := reg.Get(app)
	if err != nil {
		return err
	}

	p, err := pl.Predict(values)
	if err != nil {
		return err
	}

	if !cmd.Bool(noSaveFlagName) {
		if err := data.SavePrediction(cfg.DB, p); err != nil {
			return fmt.Errorf("recording prediction: %w", err)
		}
	}

	return encode(cmd, p)
}

func remotePredict(ctx context.Context, server, app string, values map[string]string) (*predict.Prediction, error) {
	u, err := url.JoinPath(server, "api", "predict", app)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", server, err)
	}

	client, err := net.GetHTTPClient()
	if err != nil {
		return nil, err
	}

	slog.Debug("remote predict", "url", u)
	var p predict.Prediction
	if err := net.PostJSON(ctx, client, u, values, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
