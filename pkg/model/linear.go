package model

import (
	"errors"
	"fmt"
)

const ModelLinear = "linear"

// Predictor produces a scalar from a row ordered by Features.
type Predictor interface {
	Features() []string
	Predict(row []float64) (float64, error)
}

// LinearModel is intercept + Σ coefficient·feature.
type LinearModel struct {
	features     []string
	intercept    float64
	coefficients []float64
}

func NewLinearModel(features []string, intercept float64, coefficients []float64) (*LinearModel, error) {
	if len(features) == 0 {
		return nil, errors.New("model has no features")
	}
	if len(features) != len(coefficients) {
		return nil, fmt.Errorf("%w: %d features and %d coefficients", ErrShape, len(features), len(coefficients))
	}
	return &LinearModel{
		features:     clone(features),
		intercept:    intercept,
		coefficients: clone(coefficients),
	}, nil
}

func (m *LinearModel) Features() []string {
	return clone(m.features)
}

func (m *LinearModel) Predict(row []float64) (float64, error) {
	if len(row) != len(m.coefficients) {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrShape, len(m.coefficients), len(row))
	}
	y := m.intercept
	for i, x := range row {
		y += m.coefficients[i] * x
	}
	return y, nil
}
