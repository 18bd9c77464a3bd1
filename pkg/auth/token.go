package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/predictr/pkg/net"
	"golang.org/x/oauth2"
)

// DeviceConfig identifies an OAuth2 device authorization server.
type DeviceConfig struct {
	ClientID      string
	DeviceAuthURL string
	TokenURL      string
	Scopes        []string
}

func (c *DeviceConfig) validate() error {
	if c == nil || c.ClientID == "" {
		return errors.New("clientID is required")
	}
	if c.DeviceAuthURL == "" || c.TokenURL == "" {
		return errors.New("device authorization and token URLs are required")
	}
	return nil
}

func (c *DeviceConfig) oauth() *oauth2.Config {
	return &oauth2.Config{
		ClientID: c.ClientID,
		Scopes:   c.Scopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: c.DeviceAuthURL,
			TokenURL:      c.TokenURL,
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

func withClient(ctx context.Context) (context.Context, error) {
	client, err := net.GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get http client: %w", err)
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client), nil
}

// GetDeviceCode starts the device flow. The returned user code is shown to
// the user together with the verification URI.
func GetDeviceCode(ctx context.Context, c *DeviceConfig) (*oauth2.DeviceAuthResponse, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	ctx, err := withClient(ctx)
	if err != nil {
		return nil, err
	}

	code, err := c.oauth().DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device code: %w", err)
	}
	return code, nil
}

// GetToken polls the token endpoint until the user approves the device, the
// code expires or ctx is done.
func GetToken(ctx context.Context, c *DeviceConfig, code *oauth2.DeviceAuthResponse) (*oauth2.Token, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if code == nil {
		return nil, errors.New("device code is nil")
	}
	ctx, err := withClient(ctx)
	if err != nil {
		return nil, err
	}

	t, err := c.oauth().DeviceAccessToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if t.AccessToken == "" {
		return nil, errors.New("access token is empty")
	}
	return t, nil
}
