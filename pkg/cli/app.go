package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/mchmarny/predictr/pkg/artifact"
	"github.com/mchmarny/predictr/pkg/config"
	"github.com/mchmarny/predictr/pkg/data"
	"github.com/mchmarny/predictr/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "predictr"
	appConfigKey = "app-config"
	envPrefix    = "PREDICTR_"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName     = "debug"
	logFormatFlagName = "log-format"
	configDirFlagName = "config-dir"
	dbFlagName        = "db"
	artifactsFlagName = "artifacts"
	formatFlagName    = "format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger(config.LogLevelDefault)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	Config *config.Config
	Debug  bool
	Format string
	DB     *sql.DB
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Form driven insurance payment and exam score predictions",
		Metadata:              map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    debugFlagName,
				Usage:   "Prints verbose logs (optional, default: false)",
				Sources: cli.EnvVars(envPrefix + "DEBUG"),
			},
			&cli.StringFlag{
				Name:    logFormatFlagName,
				Usage:   "Log format [cli, text, json]",
				Value:   logging.FormatCLI,
				Sources: cli.EnvVars(envPrefix + "LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    configDirFlagName,
				Usage:   "Config directory (optional, defaults to $HOME/.predictr)",
				Sources: cli.EnvVars(envPrefix + "CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    dbFlagName,
				Usage:   "Sqlite database file or postgres:// DSN for prediction history",
				Sources: cli.EnvVars(envPrefix + "DB"),
			},
			&cli.StringFlag{
				Name:    artifactsFlagName,
				Usage:   "Directory holding one artifact directory per app",
				Sources: cli.EnvVars(envPrefix + "ARTIFACTS"),
			},
			&cli.StringFlag{
				Name:    formatFlagName,
				Usage:   "Output format [json, yaml]",
				Value:   formatJSON,
				Sources: cli.EnvVars(envPrefix + "FORMAT"),
			},
		},
		Commands: []*cli.Command{
			newPredictCmd(),
			newServerCmd(),
			newHistoryCmd(),
			newArtifactCmd(),
			newAuthCmd(),
			newResetCmd(),
		},
		Before: before,
		After: func(_ context.Context, cmd *cli.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	dir := cmd.String(configDirFlagName)
	if dir == "" {
		var err error
		if dir, _, err = config.GetOrCreateHomeDir(appName); err != nil {
			return ctx, fmt.Errorf("resolving config dir: %w", err)
		}
	}

	c, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}
	if cmd.IsSet(dbFlagName) {
		c.DB = cmd.String(dbFlagName)
	}
	if cmd.IsSet(artifactsFlagName) {
		c.ArtifactDir = cmd.String(artifactsFlagName)
	}

	debug := cmd.Bool(debugFlagName)
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	logging.SetDefault(level, cmd.String(logFormatFlagName))

	format := formatJSON
	if f := cmd.String(formatFlagName); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	if err := ensureArtifacts(c.ArtifactDir); err != nil {
		return ctx, err
	}

	if err := data.Init(c.DB); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(c.DB)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		Dir:    dir,
		Config: c,
		Debug:  debug,
		Format: format,
		DB:     db,
	}
	return ctx, nil
}

// ensureArtifacts seeds a missing artifact directory with the bundled samples
// so a fresh install can predict right away.
func ensureArtifacts(dir string) error {
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		return nil
	}
	written, err := artifact.WriteSamples(dir, false)
	if err != nil {
		return fmt.Errorf("writing sample artifacts: %w", err)
	}
	slog.Info("sample artifacts written", "dir", dir, "files", len(written))
	return nil
}

func encode(cmd *cli.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if w == nil {
		w = os.Stdout
	}
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// redactDSN hides the password of a postgres DSN.
func redactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		return u.Redacted()
	}
	return dsn
}
