package net

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/oauth2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "predictr/1.0"
)

var reqTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       timeoutInSeconds * time.Second,
	DisableKeepAlives:     false,
	ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
}

// GetHTTPClient returns a client with a cookie jar and the shared transport.
func GetHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}
	return &http.Client{
		Timeout:   time.Duration(timeoutInSeconds) * time.Second,
		Transport: reqTransport,
		Jar:       jar,
	}, nil
}

// GetOAuthClient returns a client that sends token as a bearer credential.
// An empty token yields the plain client.
func GetOAuthClient(ctx context.Context, token string) (*http.Client, error) {
	base, err := GetHTTPClient()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return base, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		TokenType:   "Bearer",
		AccessToken: token,
	})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = base.Timeout
	tc.Jar = base.Jar
	return tc, nil
}

func newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", clientAgent)
	return req, nil
}
