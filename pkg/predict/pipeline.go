package predict

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/predictr/pkg/artifact"
	"github.com/mchmarny/predictr/pkg/category"
	"github.com/mchmarny/predictr/pkg/metrics"
)

const (
	errKindInput    = "input"
	errKindEncoding = "encoding"
	errKindModel    = "model"
)

// Prediction is the outcome of one submission.
type Prediction struct {
	ID          string                         `json:"id" yaml:"id"`
	App         string                         `json:"app" yaml:"app"`
	CreatedAt   time.Time                      `json:"created_at" yaml:"created_at"`
	Inputs      map[string]string              `json:"inputs" yaml:"inputs"`
	Encoded     map[string]category.Resolution `json:"encoded,omitempty" yaml:"encoded,omitempty"`
	RawValue    float64                        `json:"raw_value" yaml:"raw_value"`
	Value       float64                        `json:"value" yaml:"value"`
	Display     string                         `json:"display" yaml:"display"`
	ModelDigest string                         `json:"model_digest" yaml:"model_digest"`
}

// Pipeline runs encode, scale, predict and format for one app.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	profile  Profile
	bundle   *artifact.Bundle
	encoders map[string]category.Transformer
	scaled   []string
}

// NewPipeline checks that the bundle satisfies the profile.
func NewPipeline(p Profile, b *artifact.Bundle) (*Pipeline, error) {
	if b == nil || b.Model == nil {
		return nil, fmt.Errorf("%w: %s: model not loaded", artifact.ErrArtifact, p.Name)
	}
	if b.App != p.Name {
		return nil, fmt.Errorf("%w: bundle for %q loaded as %q", artifact.ErrArtifact, b.App, p.Name)
	}

	pl := &Pipeline{
		profile:  p,
		bundle:   b,
		encoders: make(map[string]category.Transformer),
	}

	for _, f := range p.Fields {
		if f.Kind != FieldCategorical {
			continue
		}
		switch {
		case f.Encoder != "":
			enc := b.Encoder(f.Encoder)
			if enc == nil {
				return nil, fmt.Errorf("%w: %s: encoder %q not loaded", artifact.ErrArtifact, p.Name, f.Encoder)
			}
			pl.encoders[f.Name] = enc
		case len(f.Classes) > 0:
			enc, err := category.NewEncoder(f.Name, f.Classes)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", artifact.ErrArtifact, p.Name, err)
			}
			pl.encoders[f.Name] = enc
		default:
			return nil, fmt.Errorf("%w: %s: field %q has no encoder", artifact.ErrArtifact, p.Name, f.Name)
		}
	}

	if !slices.Equal(b.Model.Features(), p.Features) {
		return nil, fmt.Errorf("%w: %s: model features %v, expected %v", artifact.ErrArtifact, p.Name, b.Model.Features(), p.Features)
	}
	for _, name := range p.Features {
		if _, ok := p.Field(name); !ok {
			return nil, fmt.Errorf("%w: %s: feature %q has no form field", artifact.ErrArtifact, p.Name, name)
		}
	}

	switch {
	case b.Scaler == nil && len(p.Scaled) > 0:
		return nil, fmt.Errorf("%w: %s: scaler not loaded", artifact.ErrArtifact, p.Name)
	case b.Scaler != nil:
		if !slices.Equal(b.Scaler.Columns(), p.Scaled) {
			return nil, fmt.Errorf("%w: %s: scaler columns %v, expected %v", artifact.ErrArtifact, p.Name, b.Scaler.Columns(), p.Scaled)
		}
		for _, name := range p.Scaled {
			if f, ok := p.Field(name); !ok || f.Kind != FieldNumeric {
				return nil, fmt.Errorf("%w: %s: scaled column %q is not a numeric field", artifact.ErrArtifact, p.Name, name)
			}
		}
		pl.scaled = b.Scaler.Columns()
	}

	return pl, nil
}

// Profile returns the app description.
func (pl *Pipeline) Profile() Profile {
	return pl.profile
}

// Bundle returns the loaded artifacts.
func (pl *Pipeline) Bundle() *artifact.Bundle {
	return pl.bundle
}

// Predict encodes, scales and predicts from the submitted form values.
// Missing values use the field defaults.
func (pl *Pipeline) Predict(values map[string]string) (*Prediction, error) {
	start := time.Now()
	app := pl.profile.Name

	p, err := pl.predict(values)
	if err != nil {
		metrics.PredictionErrors.WithLabelValues(app, errorKind(err)).Inc()
		slog.Debug("prediction failed", "app", app, "error", err)
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.Predictions.WithLabelValues(app).Inc()
	metrics.PredictionDuration.WithLabelValues(app).Observe(elapsed.Seconds())
	for field, r := range p.Encoded {
		metrics.Resolutions.WithLabelValues(app, field, string(r.Source)).Inc()
	}

	slog.Debug("prediction",
		"app", app,
		"id", p.ID,
		"value", p.Value,
		"encoded", p.Encoded,
		"duration", elapsed.String(),
	)

	return p, nil
}

func (pl *Pipeline) predict(values map[string]string) (*Prediction, error) {
	p := &Prediction{
		ID:          uuid.NewString(),
		App:         pl.profile.Name,
		CreatedAt:   time.Now().UTC(),
		Inputs:      make(map[string]string, len(pl.profile.Fields)),
		Encoded:     make(map[string]category.Resolution),
		ModelDigest: pl.bundle.Digest,
	}

	features := make(map[string]float64, len(pl.profile.Fields))
	for i := range pl.profile.Fields {
		f := &pl.profile.Fields[i]
		raw := f.value(values)
		p.Inputs[f.Name] = raw

		if f.Kind == FieldCategorical {
			r, err := category.Resolve(pl.encoders[f.Name], raw, f.Fallback)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Label, err)
			}
			p.Encoded[f.Name] = r
			features[f.Name] = float64(r.Code)
			continue
		}

		v, err := f.parseNumber(raw)
		if err != nil {
			return nil, err
		}
		features[f.Name] = v
	}

	if len(pl.scaled) > 0 {
		in := make([]float64, len(pl.scaled))
		for i, name := range pl.scaled {
			in[i] = features[name]
		}
		out, err := pl.bundle.Scaler.Transform(in)
		if err != nil {
			return nil, fmt.Errorf("scaling: %w", err)
		}
		for i, name := range pl.scaled {
			features[name] = out[i]
		}
	}

	row := make([]float64, len(pl.profile.Features))
	for i, name := range pl.profile.Features {
		row[i] = features[name]
	}

	raw, err := pl.bundle.Model.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}

	p.RawValue = raw
	p.Value, p.Display = pl.profile.Output.present(raw)
	return p, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return errKindInput
	case errors.Is(err, category.ErrUnresolvable):
		return errKindEncoding
	default:
		return errKindModel
	}
}
