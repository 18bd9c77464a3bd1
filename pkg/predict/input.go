package predict

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is matched by every FieldError.
var ErrInvalidInput = errors.New("invalid input")

// FieldError reports a form value that could not be used.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (f *Field) defaultValue() string {
	if f.Kind == FieldCategorical {
		if len(f.Options) > 0 {
			return f.Options[0]
		}
		return ""
	}
	return formatNumber(f.Default, f.Integer)
}

// value returns the submitted value, or the default when none was given.
func (f *Field) value(values map[string]string) string {
	v := strings.TrimSpace(values[f.Name])
	if v == "" {
		return f.defaultValue()
	}
	return v
}

func (f *Field) parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: f.Label, Value: raw, Reason: "not a number"}
	}
	if f.Integer && v != math.Trunc(v) {
		return 0, &FieldError{Field: f.Label, Value: raw, Reason: "must be a whole number"}
	}
	if v < f.Min || v > f.Max {
		return 0, &FieldError{
			Field:  f.Label,
			Value:  raw,
			Reason: fmt.Sprintf("must be between %s and %s", formatNumber(f.Min, f.Integer), formatNumber(f.Max, f.Integer)),
		}
	}
	return v, nil
}

func formatNumber(v float64, integer bool) string {
	if integer {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
