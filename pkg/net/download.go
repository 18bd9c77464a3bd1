package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

var ErrorURLNotFound = errors.New("URL not found")

// Download saves the content of url to path. The file is written to a
// temporary sibling first so a failed transfer never leaves a partial file.
func Download(ctx context.Context, client *http.Client, url, path string) (retErr error) {
	if client == nil {
		return errors.New("http client required")
	}

	req, err := newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}

	resp, err := client.Do(req) //nolint:gosec // URL comes from the operator
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrorURLNotFound, url)
	}

	if resp.StatusCode != http.StatusOK {
		PrintHTTPResponse(resp)
		return fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	out, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file for %s: %w", path, err)
	}
	tmp := out.Name()
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp)
		}
	}()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("error saving downloaded content to file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error moving downloaded file to %s: %w", path, err)
	}

	slog.Debug("downloaded", "url", url, "path", path, "bytes", n)
	return nil
}
