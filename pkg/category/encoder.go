package category

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownClass is returned by Transform when the value is not one of
	// the encoder classes.
	ErrUnknownClass = errors.New("value not recognized by encoder")

	// ErrInvalidEncoder indicates the encoder itself is unusable.
	ErrInvalidEncoder = errors.New("invalid encoder")
)

// Transformer maps known category values to integer codes.
type Transformer interface {
	// Transform returns the code for value or an error wrapping ErrUnknownClass.
	Transform(value string) (int, error)
	// Classes returns the recognized values in their natural order.
	Classes() []string
}

// Encoder is an immutable ordered set of classes and their codes.
type Encoder struct {
	name    string
	classes []string
	codes   map[string]int
}

// NewEncoder creates an encoder whose codes are the class positions.
func NewEncoder(name string, classes []string) (*Encoder, error) {
	codes := make([]int, len(classes))
	for i := range classes {
		codes[i] = i
	}
	return NewEncoderWithCodes(name, classes, codes)
}

// NewEncoderWithCodes creates an encoder with explicit codes, one per class.
func NewEncoderWithCodes(name string, classes []string, codes []int) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: %q has no classes", ErrInvalidEncoder, name)
	}
	if len(classes) != len(codes) {
		return nil, fmt.Errorf("%w: %q has %d classes and %d codes", ErrInvalidEncoder, name, len(classes), len(codes))
	}

	e := &Encoder{
		name:    name,
		classes: make([]string, len(classes)),
		codes:   make(map[string]int, len(classes)),
	}
	copy(e.classes, classes)

	for i, c := range classes {
		if _, ok := e.codes[c]; ok {
			return nil, fmt.Errorf("%w: %q has duplicate class %q", ErrInvalidEncoder, name, c)
		}
		e.codes[c] = codes[i]
	}

	return e, nil
}

// MustEncoder is like NewEncoder but panics on error. Use for static class lists.
func MustEncoder(name string, classes ...string) *Encoder {
	e, err := NewEncoder(name, classes)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the encoder name.
func (e *Encoder) Name() string {
	if e == nil {
		return ""
	}
	return e.name
}

// Transform returns the code of value or an error wrapping ErrUnknownClass.
func (e *Encoder) Transform(value string) (int, error) {
	if e == nil {
		return 0, ErrInvalidEncoder
	}
	code, ok := e.codes[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownClass, value)
	}
	return code, nil
}

// Classes returns a copy of the classes in encoder order.
func (e *Encoder) Classes() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Codes returns the class to code mapping.
func (e *Encoder) Codes() map[string]int {
	out := make(map[string]int, len(e.codes))
	for k, v := range e.codes {
		out[k] = v
	}
	return out
}
