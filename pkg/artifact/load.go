package artifact

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mchmarny/predictr/pkg/category"
	"github.com/mchmarny/predictr/pkg/model"
	"golang.org/x/sync/errgroup"
)

const maxParallelLoads = 4

// ReadManifest reads and validates the manifest in dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	raw, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifact, path, err)
	}

	var m Manifest
	if err := decode(KindManifest, raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifact, path, err)
	}
	return &m, nil
}

// LoadBundle loads every artifact listed in the manifest of dir.
// Files are read in parallel; the first failure aborts the load.
func LoadBundle(dir string) (*Bundle, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: artifact directory not specified", ErrArtifact)
	}

	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if _, err := m.Paths(); err != nil {
		return nil, err
	}

	b := &Bundle{
		App:      m.App,
		Dir:      dir,
		Encoders: make(map[string]*category.Encoder, len(m.Encoders)),
	}

	jobs := []job{{kind: KindModel, name: m.App, file: m.Model}}
	if m.Scaler != "" {
		jobs = append(jobs, job{kind: KindScaler, name: m.App, file: m.Scaler})
	}
	for name, file := range m.Encoders {
		jobs = append(jobs, job{kind: KindEncoder, name: name, file: file})
	}

	var g errgroup.Group
	g.SetLimit(maxParallelLoads)

	for i := range jobs {
		j := &jobs[i]
		j.path = filepath.Join(dir, j.file)
		g.Go(func() error {
			if err := j.load(); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrArtifact, j.path, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, j := range jobs {
		switch v := j.value.(type) {
		case model.Predictor:
			b.Model = v
		case model.Scaler:
			b.Scaler = v
		case *category.Encoder:
			b.Encoders[j.name] = v
		}
		b.Files = append(b.Files, File{
			Kind:   j.kind,
			Name:   j.name,
			Path:   j.path,
			Digest: j.digest,
		})
	}

	sort.Slice(b.Files, func(i, k int) bool {
		if b.Files[i].Kind != b.Files[k].Kind {
			return b.Files[i].Kind < b.Files[k].Kind
		}
		return b.Files[i].Name < b.Files[k].Name
	})
	b.Digest = bundleDigest(b.Files)

	slog.Debug("artifact bundle loaded",
		"app", b.App,
		"dir", dir,
		"files", len(b.Files),
		"digest", b.Digest,
	)

	return b, nil
}

type job struct {
	kind   string
	name   string
	file   string
	path   string
	digest string
	value  any
}

func (j *job) load() error {
	raw, err := readFile(j.path)
	if err != nil {
		return err
	}
	j.digest = digest(raw)

	switch j.kind {
	case KindModel:
		var d ModelDoc
		if err := decode(j.kind, raw, &d); err != nil {
			return err
		}
		j.value, err = d.build()
	case KindScaler:
		var d ScalerDoc
		if err := decode(j.kind, raw, &d); err != nil {
			return err
		}
		j.value, err = d.build()
	case KindEncoder:
		var d EncoderDoc
		if err := decode(j.kind, raw, &d); err != nil {
			return err
		}
		if d.Name != j.name {
			return fmt.Errorf("encoder name %q does not match manifest key %q", d.Name, j.name)
		}
		j.value, err = d.build()
	default:
		return fmt.Errorf("unsupported artifact kind: %s", j.kind)
	}
	return err
}

func digest(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

func bundleDigest(files []File) string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, f.Kind+":"+f.Name+":"+f.Digest)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(lines, "\n")))
}
