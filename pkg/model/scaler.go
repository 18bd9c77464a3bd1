package model

import (
	"errors"
	"fmt"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

var ErrShape = errors.New("shape mismatch")

// Scaler normalizes continuous columns before prediction.
type Scaler interface {
	// Columns returns the column names, in the order Transform expects them.
	Columns() []string
	Transform(values []float64) ([]float64, error)
}

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	columns []string
	mean    []float64
	scale   []float64
}

func NewStandardScaler(columns []string, mean, scale []float64) (*StandardScaler, error) {
	if err := checkColumns(columns, mean, scale); err != nil {
		return nil, err
	}
	for i, s := range scale {
		if s == 0 {
			return nil, fmt.Errorf("zero scale for column %q", columns[i])
		}
	}
	return &StandardScaler{
		columns: clone(columns),
		mean:    clone(mean),
		scale:   clone(scale),
	}, nil
}

func (s *StandardScaler) Columns() []string {
	return clone(s.columns)
}

func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.columns) {
		return nil, fmt.Errorf("%w: scaler expects %d values, got %d", ErrShape, len(s.columns), len(values))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// MinMaxScaler maps each column from [min, max] onto [0, 1].
type MinMaxScaler struct {
	columns []string
	min     []float64
	max     []float64
}

func NewMinMaxScaler(columns []string, lo, hi []float64) (*MinMaxScaler, error) {
	if err := checkColumns(columns, lo, hi); err != nil {
		return nil, err
	}
	for i := range lo {
		if hi[i] <= lo[i] {
			return nil, fmt.Errorf("empty range for column %q: [%v, %v]", columns[i], lo[i], hi[i])
		}
	}
	return &MinMaxScaler{
		columns: clone(columns),
		min:     clone(lo),
		max:     clone(hi),
	}, nil
}

func (s *MinMaxScaler) Columns() []string {
	return clone(s.columns)
}

func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.columns) {
		return nil, fmt.Errorf("%w: scaler expects %d values, got %d", ErrShape, len(s.columns), len(values))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.min[i]) / (s.max[i] - s.min[i])
	}
	return out, nil
}

func checkColumns(columns []string, a, b []float64) error {
	if len(columns) == 0 {
		return errors.New("scaler has no columns")
	}
	if len(a) != len(columns) || len(b) != len(columns) {
		return fmt.Errorf("%w: %d columns, %d and %d parameters", ErrShape, len(columns), len(a), len(b))
	}
	return nil
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
