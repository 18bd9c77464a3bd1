package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mchmarny/predictr/pkg/category"
	"github.com/mchmarny/predictr/pkg/model"
)

const (
	ManifestFileName = "manifest.yaml"

	KindManifest = "manifest"
	KindEncoder  = "encoder"
	KindScaler   = "scaler"
	KindModel    = "model"
)

// ErrArtifact is wrapped by every load failure.
var ErrArtifact = errors.New("artifact error")

// Manifest lists the artifact files of one app, relative to its directory.
type Manifest struct {
	App      string            `json:"app" yaml:"app"`
	Model    string            `json:"model" yaml:"model"`
	Scaler   string            `json:"scaler,omitempty" yaml:"scaler,omitempty"`
	Encoders map[string]string `json:"encoders,omitempty" yaml:"encoders,omitempty"`
}

type EncoderDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Classes []string `json:"classes" yaml:"classes"`
	Codes   []int    `json:"codes,omitempty" yaml:"codes,omitempty"`
}

func (d *EncoderDoc) build() (*category.Encoder, error) {
	if len(d.Codes) == 0 {
		return category.NewEncoder(d.Name, d.Classes)
	}
	return category.NewEncoderWithCodes(d.Name, d.Classes, d.Codes)
}

type ScalerDoc struct {
	Kind    string    `json:"kind" yaml:"kind"`
	Columns []string  `json:"columns" yaml:"columns"`
	Mean    []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Scale   []float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Min     []float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     []float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

func (d *ScalerDoc) build() (model.Scaler, error) {
	switch d.Kind {
	case model.ScalerStandard:
		return model.NewStandardScaler(d.Columns, d.Mean, d.Scale)
	case model.ScalerMinMax:
		return model.NewMinMaxScaler(d.Columns, d.Min, d.Max)
	default:
		return nil, fmt.Errorf("unsupported scaler kind: %q", d.Kind)
	}
}

type ModelDoc struct {
	Kind         string    `json:"kind" yaml:"kind"`
	Features     []string  `json:"features" yaml:"features"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
}

func (d *ModelDoc) build() (model.Predictor, error) {
	switch d.Kind {
	case model.ModelLinear:
		return model.NewLinearModel(d.Features, d.Intercept, d.Coefficients)
	default:
		return nil, fmt.Errorf("unsupported model kind: %q", d.Kind)
	}
}

// File describes one loaded artifact file.
type File struct {
	Kind   string `json:"kind" yaml:"kind"`
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Digest string `json:"digest" yaml:"digest"`
}

// Bundle is the immutable set of artifacts for one app.
type Bundle struct {
	App      string
	Dir      string
	Model    model.Predictor
	Scaler   model.Scaler
	Encoders map[string]*category.Encoder
	Files    []File
	Digest   string
}

// Encoder returns the named encoder or nil.
func (b *Bundle) Encoder(name string) *category.Encoder {
	if b == nil {
		return nil
	}
	return b.Encoders[name]
}

// Paths returns every file the manifest references, in a stable order.
// Paths that would escape the app directory are rejected.
func (m *Manifest) Paths() ([]string, error) {
	list := []string{m.Model}
	if m.Scaler != "" {
		list = append(list, m.Scaler)
	}
	names := make([]string, 0, len(m.Encoders))
	for name := range m.Encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		list = append(list, m.Encoders[name])
	}

	for _, p := range list {
		if !filepath.IsLocal(p) {
			return nil, fmt.Errorf("%w: path %q is not local to the app directory", ErrArtifact, p)
		}
	}
	return list, nil
}
