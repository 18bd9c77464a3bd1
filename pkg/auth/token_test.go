package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newDeviceServer(t *testing.T, pending int32) (*httptest.Server, *DeviceConfig) {
	t.Helper()
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /device", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test-client", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dc_test",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://registry.example.com/device",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "dc_test", r.PostForm.Get("device_code"))
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) <= pending {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"authorization_pending"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"reg_test123","token_type":"bearer"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, &DeviceConfig{
		ClientID:      "test-client",
		DeviceAuthURL: srv.URL + "/device",
		TokenURL:      srv.URL + "/token",
	}
}

func TestGetDeviceCode_EmptyClientID(t *testing.T) {
	_, err := GetDeviceCode(context.Background(), &DeviceConfig{DeviceAuthURL: "x", TokenURL: "y"})
	assert.Error(t, err)

	_, err = GetDeviceCode(context.Background(), nil)
	assert.Error(t, err)
}

func TestGetDeviceCode_MissingURLs(t *testing.T) {
	_, err := GetDeviceCode(context.Background(), &DeviceConfig{ClientID: "test-client"})
	assert.Error(t, err)
}

func TestGetToken_EmptyClientID(t *testing.T) {
	_, err := GetToken(context.Background(), &DeviceConfig{}, &oauth2.DeviceAuthResponse{})
	assert.Error(t, err)
}

func TestGetToken_NilCode(t *testing.T) {
	_, c := newDeviceServer(t, 0)
	_, err := GetToken(context.Background(), c, nil)
	assert.Error(t, err)
}

func TestDeviceFlow(t *testing.T) {
	_, c := newDeviceServer(t, 1)
	ctx := context.Background()

	code, err := GetDeviceCode(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", code.UserCode)
	assert.Equal(t, "https://registry.example.com/device", code.VerificationURI)

	tok, err := GetToken(ctx, c, code)
	require.NoError(t, err)
	assert.Equal(t, "reg_test123", tok.AccessToken)
}

func TestGetDeviceCode_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := GetDeviceCode(context.Background(), &DeviceConfig{
		ClientID:      "test-client",
		DeviceAuthURL: srv.URL + "/device",
		TokenURL:      srv.URL + "/token",
	})
	assert.Error(t, err)
}
