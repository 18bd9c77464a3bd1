package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/predictr/pkg/auth"
	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"
)

const (
	tokenFileName  = "registry_token"
	keyringService = "predictr"
	keyringUser    = "registry_token"

	clearFlagName     = "clear"
	deviceFlagName    = "device"
	clientIDFlagName  = "client-id"
	deviceURLFlagName = "device-url"
	tokenURLFlagName  = "token-url"
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Save the artifact registry token used by artifact fetch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  tokenFlagName,
				Usage: "Registry token (optional, read from stdin when omitted)",
			},
			&cli.BoolFlag{
				Name:  clearFlagName,
				Usage: "Remove the saved token",
			},
			&cli.BoolFlag{
				Name:  deviceFlagName,
				Usage: "Obtain the token through the registry's OAuth2 device login",
			},
			&cli.StringFlag{
				Name:    clientIDFlagName,
				Usage:   "OAuth2 client ID for the device login",
				Sources: cli.EnvVars(envPrefix + "REGISTRY_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    deviceURLFlagName,
				Usage:   "Device authorization endpoint of the registry",
				Sources: cli.EnvVars(envPrefix + "REGISTRY_DEVICE_URL"),
			},
			&cli.StringFlag{
				Name:    tokenURLFlagName,
				Usage:   "Token endpoint of the registry",
				Sources: cli.EnvVars(envPrefix + "REGISTRY_TOKEN_URL"),
			},
		},
		Action: cmdAuth,
	}
}

func cmdAuth(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	if cmd.Bool(clearFlagName) {
		if err := deleteRegistryToken(cfg.Dir); err != nil {
			return fmt.Errorf("removing token: %w", err)
		}
		fmt.Fprintln(cmd.Root().Writer, "Token removed")
		return nil
	}

	token := cmd.String(tokenFlagName)
	if token == "" && cmd.Bool(deviceFlagName) {
		var err error
		if token, err = deviceLogin(ctx, cmd); err != nil {
			return err
		}
	}
	if token == "" {
		fmt.Fprint(cmd.Root().Writer, "Paste the registry token and hit enter:\n>")
		var err error
		if token, err = readLine(cmd.Root().Reader); err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
	}
	if token == "" {
		return errors.New("token required")
	}

	if err := saveRegistryToken(cfg.Dir, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, "Token saved")
	return nil
}

func deviceLogin(ctx context.Context, cmd *cli.Command) (string, error) {
	c := &auth.DeviceConfig{
		ClientID:      cmd.String(clientIDFlagName),
		DeviceAuthURL: cmd.String(deviceURLFlagName),
		TokenURL:      cmd.String(tokenURLFlagName),
	}

	code, err := auth.GetDeviceCode(ctx, c)
	if err != nil {
		return "", fmt.Errorf("getting device code: %w", err)
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "1). Copy this code: %s\n", code.UserCode)
	fmt.Fprintf(w, "2). Navigate to this URL in your browser to authenticate: %s\n", code.VerificationURI)
	fmt.Fprintln(w, "3). Waiting for the registry to confirm...")

	t, err := auth.GetToken(ctx, c, code)
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	return t.AccessToken, nil
}

func readLine(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func saveRegistryToken(dir, token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveRegistryTokenFile(dir, token)
	}

	// a token saved while the keychain was unavailable is now stale
	_ = os.Remove(filepath.Join(dir, tokenFileName))
	return nil
}

// getRegistryToken returns the saved token from the keychain or the file
// fallback. The error wraps os.ErrNotExist when no token was saved.
func getRegistryToken(dir string) (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = getRegistryTokenFile(dir)
	if err != nil {
		return "", err
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		_ = os.Remove(filepath.Join(dir, tokenFileName))
	}

	return token, nil
}

func deleteRegistryToken(dir string) error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain delete failed", "error", err)
	}
	if err := os.Remove(filepath.Join(dir, tokenFileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func saveRegistryTokenFile(dir, token string) error {
	return os.WriteFile(filepath.Join(dir, tokenFileName), []byte(token), 0600)
}

func getRegistryTokenFile(dir string) (string, error) {
	tokenPath := filepath.Join(dir, tokenFileName)
	b, err := os.ReadFile(tokenPath)
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", tokenPath, err)
	}
	return strings.TrimSpace(string(b)), nil
}
