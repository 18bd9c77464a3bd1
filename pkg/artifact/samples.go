package artifact

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	dirMode  = 0700
	fileMode = 0600
)

var (
	//go:embed samples
	samplesFS embed.FS
)

// WriteSamples writes the bundled sample artifacts, one sub directory per app,
// into dir. Existing files are kept unless overwrite is set.
func WriteSamples(dir string, overwrite bool) ([]string, error) {
	if dir == "" {
		return nil, errors.New("target directory required")
	}

	written := make([]string, 0)
	err := fs.WalkDir(samplesFS, "samples", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel("samples", p)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, dirMode)
		}

		if _, err := os.Stat(target); err == nil && !overwrite {
			slog.Debug("artifact exists, skipping", "path", target)
			return nil
		}

		b, err := samplesFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading sample %s: %w", p, err)
		}
		if err := os.WriteFile(target, b, fileMode); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		written = append(written, target)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing samples to %s: %w", dir, err)
	}

	return written, nil
}
