package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

var documentExts = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// readFile returns the decompressed content of path.
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	base := path

	switch ext := filepath.Ext(path); ext {
	case ".zst":
		d, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer d.Close()
		r = d
		base = strings.TrimSuffix(path, ext)
	case ".gz":
		g, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		defer g.Close()
		r = g
		base = strings.TrimSuffix(path, ext)
	case ".lz4":
		r = lz4.NewReader(f)
		base = strings.TrimSuffix(path, ext)
	}

	if !documentExts[strings.ToLower(filepath.Ext(base))] {
		return nil, fmt.Errorf("unsupported artifact format: %s", filepath.Base(path))
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return b, nil
}

// decode validates raw against the schema for kind and decodes it into v.
// YAML is a superset of JSON so both go through the YAML decoder.
func decode(kind string, raw []byte, v any) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing %s document: %w", kind, err)
	}
	if doc == nil {
		return fmt.Errorf("empty %s document", kind)
	}

	// round trip through JSON so the validator sees json.Number values
	j, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalizing %s document: %w", kind, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(j))
	if err != nil {
		return fmt.Errorf("normalizing %s document: %w", kind, err)
	}

	if err := validate(kind, inst); err != nil {
		return err
	}

	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s document: %w", kind, err)
	}
	return nil
}
