package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBody = 4 << 10

// StatusError is returned when the server answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// PostJSON sends in as JSON to url and decodes the response into target.
func PostJSON[T any](ctx context.Context, client *http.Client, url string, in any, target *T) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("error encoding request: %w", err)
	}

	req, err := newRequest(ctx, http.MethodPost, url)
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.ContentLength = int64(len(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req) //nolint:gosec // URL comes from the operator
	if err != nil {
		return fmt.Errorf("error executing HTTP Post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}
	return nil
}

// statusError extracts the "error" field of a JSON error body when present.
func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return se
	}
	var msg struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Error != "" {
		se.Message = msg.Error
	} else {
		se.Message = string(bytes.TrimSpace(body))
	}
	return se
}
