package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mchmarny/predictr/pkg/artifact"
	"github.com/mchmarny/predictr/pkg/net"
	"github.com/mchmarny/predictr/pkg/predict"
	"github.com/urfave/cli/v3"
)

const (
	dirMode = 0700

	dirFlagName   = "dir"
	forceFlagName = "force"
	urlFlagName   = "url"
	outFlagName   = "out"
	tokenFlagName = "token"
)

// bundleSummary is what verify and fetch print per app.
type bundleSummary struct {
	App    string          `json:"app" yaml:"app"`
	Dir    string          `json:"dir" yaml:"dir"`
	Digest string          `json:"digest" yaml:"digest"`
	Files  []artifact.File `json:"files" yaml:"files"`
}

func summarize(b *artifact.Bundle) bundleSummary {
	return bundleSummary{App: b.App, Dir: b.Dir, Digest: b.Digest, Files: b.Files}
}

func newArtifactCmd() *cli.Command {
	dirFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  dirFlagName,
			Usage: "Artifact directory (optional, defaults to the configured one)",
		}
	}

	return &cli.Command{
		Name:  "artifact",
		Usage: "Manage the model, scaler and encoder artifacts",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the bundled sample artifacts for every app",
				Flags: []cli.Flag{
					dirFlag(),
					&cli.BoolFlag{
						Name:  forceFlagName,
						Usage: "Overwrite existing files",
					},
				},
				Action: cmdArtifactInit,
			},
			{
				Name:   "verify",
				Usage:  "Load every app bundle and print the artifact digests",
				Flags:  []cli.Flag{dirFlag()},
				Action: cmdArtifactVerify,
			},
			{
				Name:  "fetch",
				Usage: "Download one app's artifacts from a manifest URL and verify them",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     urlFlagName,
						Usage:    "Base URL of the app artifact directory (the one holding manifest.yaml)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  outFlagName,
						Usage: "Target directory (optional, defaults to <artifacts>/<app>)",
					},
					appFlag(),
					&cli.StringFlag{
						Name:    tokenFlagName,
						Usage:   "Bearer token for the artifact registry (optional, defaults to the saved token)",
						Sources: cli.EnvVars(envPrefix + "TOKEN"),
					},
				},
				Action: cmdArtifactFetch,
			},
		},
	}
}

func artifactDir(cmd *cli.Command) string {
	if v := cmd.String(dirFlagName); v != "" {
		return v
	}
	return getConfig(cmd).Config.ArtifactDir
}

func cmdArtifactInit(_ context.Context, cmd *cli.Command) error {
	dir := artifactDir(cmd)
	written, err := artifact.WriteSamples(dir, cmd.Bool(forceFlagName))
	if err != nil {
		return err
	}
	slog.Info("sample artifacts written", "dir", dir, "files", len(written))
	return encode(cmd, written)
}

func cmdArtifactVerify(_ context.Context, cmd *cli.Command) error {
	dir := artifactDir(cmd)

	list := make([]bundleSummary, 0)
	for _, p := range predict.Profiles() {
		b, err := artifact.LoadBundle(filepath.Join(dir, p.Name))
		if err != nil {
			return err
		}
		if _, err := predict.NewPipeline(p, b); err != nil {
			return err
		}
		list = append(list, summarize(b))
	}
	return encode(cmd, list)
}

func cmdArtifactFetch(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	base := cmd.String(urlFlagName)

	out := cmd.String(outFlagName)
	if out == "" {
		out = filepath.Join(cfg.Config.ArtifactDir, selectedApp(cmd))
	}

	token := cmd.String(tokenFlagName)
	if token == "" {
		t, err := getRegistryToken(cfg.Dir)
		switch {
		case err == nil:
			token = t
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("no saved registry token, fetching anonymously")
		default:
			return fmt.Errorf("reading registry token: %w", err)
		}
	}

	b, err := fetchBundle(ctx, base, out, token)
	if err != nil {
		return err
	}
	return encode(cmd, summarize(b))
}

// fetchBundle downloads the manifest at base and every file it lists into
// out, then loads the result so a broken download is reported right away.
func fetchBundle(ctx context.Context, base, out, token string) (*artifact.Bundle, error) {
	client, err := net.GetOAuthClient(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(out, dirMode); err != nil {
		return nil, fmt.Errorf("creating %s: %w", out, err)
	}

	download := func(name string) error {
		u, err := url.JoinPath(base, name)
		if err != nil {
			return fmt.Errorf("invalid artifact URL %q: %w", base, err)
		}
		path := filepath.Join(out, name)
		if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		slog.Debug("fetching artifact", "url", u, "path", path)
		return net.Download(ctx, client, u, path)
	}

	if err := download(artifact.ManifestFileName); err != nil {
		return nil, err
	}

	m, err := artifact.ReadManifest(out)
	if err != nil {
		return nil, err
	}
	paths, err := m.Paths()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := download(p); err != nil {
			return nil, err
		}
	}

	b, err := artifact.LoadBundle(out)
	if err != nil {
		return nil, err
	}
	if p, ok := predict.GetProfile(b.App); ok {
		if _, err := predict.NewPipeline(p, b); err != nil {
			return nil, err
		}
	}

	slog.Info("artifacts fetched", "app", b.App, "dir", out, "digest", b.Digest)
	return b, nil
}
