package cli

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/mchmarny/predictr/pkg/metrics"
	"github.com/mchmarny/predictr/pkg/predict"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 60
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 1 << 16

	portFlagName      = "port"
	noBrowserFlagName = "no-browser"
)

//go:embed assets/* templates/*
var embedFS embed.FS

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP server with the prediction forms",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    portFlagName,
				Usage:   "Port on which the server will listen (optional, defaults to config port)",
				Sources: cli.EnvVars(envPrefix + "PORT"),
			},
			&cli.BoolFlag{
				Name:    noBrowserFlagName,
				Aliases: []string{"nb"},
				Usage:   "Do not open browser automatically",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	// artifacts are loaded once, a broken bundle keeps the server from starting
	reg, err := predict.LoadRegistry(cfg.Config.ArtifactDir)
	if err != nil {
		return fmt.Errorf("loading apps: %w", err)
	}

	port := cfg.Config.Port
	if cmd.IsSet(portFlagName) {
		port = cmd.Int(portFlagName)
	}
	address := net.JoinHostPort(cfg.Config.Address, strconv.Itoa(port))

	s := &http.Server{
		Addr:              address,
		Handler:           makeRouter(cfg.DB, reg),
		ReadHeaderTimeout: serverTimeoutSeconds * time.Second,
		ReadTimeout:       serverTimeoutSeconds * time.Second,
		WriteTimeout:      serverTimeoutSeconds * time.Second,
		MaxHeaderBytes:    1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	url := "http://" + address
	slog.Info("server started", "address", url, "apps", len(reg.Profiles()))

	if !cmd.Bool(noBrowserFlagName) {
		openBrowser(url)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(db *sql.DB, reg *predict.Registry) *http.ServeMux {
	tmpl := template.Must(template.New("").ParseFS(embedFS, "templates/*.html"))

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(embedFS)))
	mux.HandleFunc("GET /favicon.ico", faviconHandler)
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	// Views
	mux.HandleFunc("GET /{$}", homeViewHandler(tmpl, reg))
	mux.HandleFunc("GET /app/{app}", appViewHandler(tmpl, reg))
	mux.HandleFunc("POST /app/{app}", appSubmitHandler(tmpl, reg, db))

	// API
	mux.HandleFunc("GET /api/apps", appsAPIHandler(reg))
	mux.HandleFunc("POST /api/predict/{app}", predictAPIHandler(reg, db))
	mux.HandleFunc("GET /data/history", historyAPIHandler(db))

	return mux
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
