package predict

import (
	"github.com/mchmarny/predictr/pkg/category"
)

type FieldKind string

const (
	FieldNumeric     FieldKind = "numeric"
	FieldCategorical FieldKind = "categorical"
)

type OutputKind string

const (
	OutputCurrency OutputKind = "currency"
	OutputScore    OutputKind = "score"
)

// Field is one form input.
type Field struct {
	Name    string    `json:"name" yaml:"name"`
	Label   string    `json:"label" yaml:"label"`
	Kind    FieldKind `json:"kind" yaml:"kind"`
	Integer bool      `json:"integer,omitempty" yaml:"integer,omitempty"`
	Min     float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max     float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Default float64   `json:"default,omitempty" yaml:"default,omitempty"`
	Step    float64   `json:"step,omitempty" yaml:"step,omitempty"`

	// Options are the values offered in the form, the first one is the default.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
	// Encoder names the artifact encoder for this field.
	Encoder string `json:"-" yaml:"-"`
	// Classes define an inline encoder when the app ships none.
	Classes  []string             `json:"-" yaml:"-"`
	Fallback category.FallbackMap `json:"-" yaml:"-"`
}

// Output controls how the model value is presented.
type Output struct {
	Kind   OutputKind `json:"kind" yaml:"kind"`
	Label  string     `json:"label" yaml:"label"`
	Prefix string     `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Min    float64    `json:"min,omitempty" yaml:"min,omitempty"`
	Max    float64    `json:"max,omitempty" yaml:"max,omitempty"`
}

// Profile describes one prediction app.
type Profile struct {
	Name        string  `json:"name" yaml:"name"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	SubmitLabel string  `json:"submit_label" yaml:"submit_label"`
	Fields      []Field `json:"fields" yaml:"fields"`
	// Scaled are the columns normalized by the scaler, in scaler order.
	Scaled []string `json:"-" yaml:"-"`
	// Features is the model input order.
	Features []string `json:"-" yaml:"-"`
	Output   Output   `json:"output" yaml:"output"`
}

// Field returns the named field.
func (p *Profile) Field(name string) (*Field, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// Defaults returns the form values used when nothing was submitted.
func (p *Profile) Defaults() map[string]string {
	out := make(map[string]string, len(p.Fields))
	for _, f := range p.Fields {
		out[f.Name] = f.defaultValue()
	}
	return out
}
