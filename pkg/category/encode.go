package category

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
)

// ErrUnresolvable is matched by every EncodingError.
var ErrUnresolvable = errors.New("unable to encode value")

// FallbackMap is the backup value to code mapping used when the encoder
// cannot resolve a value.
type FallbackMap map[string]int

// Source identifies which step resolved a value.
type Source string

const (
	SourceDirect     Source = "direct"
	SourceClassMatch Source = "class-match"
	SourceFallback   Source = "fallback"
)

// Resolution is a successfully encoded value.
type Resolution struct {
	Code   int    `json:"code" yaml:"code"`
	Source Source `json:"source" yaml:"source"`
}

// EncodingError is returned when no step could resolve the value.
type EncodingError struct {
	Encoder string
	Value   string
}

func (e *EncodingError) Error() string {
	if e.Encoder == "" {
		return fmt.Sprintf("unable to encode value %q using encoder and no suitable fallback found", e.Value)
	}
	return fmt.Sprintf("unable to encode value %q using encoder %q and no suitable fallback found", e.Value, e.Encoder)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrUnresolvable
}

// attempt is the outcome of one resolution step; ok is false when the step
// did not recognize the value.
type attempt struct {
	res Resolution
	ok  bool
}

type step func(t Transformer, value string, fallback FallbackMap) (attempt, error)

var steps = []step{
	transformDirect,
	matchClass,
	lookupFallback,
}

// Encode converts value into the integer code expected by the model.
func Encode(t Transformer, value string, fallback FallbackMap) (int, error) {
	r, err := Resolve(t, value, fallback)
	if err != nil {
		return 0, err
	}
	return r.Code, nil
}

// Resolve tries, in order, the encoder transform, a case-insensitive match
// against the encoder classes, and the fallback map. Only ErrUnknownClass
// moves on to the next step; any other error is returned as is.
func Resolve(t Transformer, value string, fallback FallbackMap) (Resolution, error) {
	if t == nil {
		return Resolution{}, fmt.Errorf("%w: nil encoder", ErrInvalidEncoder)
	}

	for _, s := range steps {
		a, err := s(t, value, fallback)
		if err != nil {
			return Resolution{}, err
		}
		if a.ok {
			return a.res, nil
		}
	}

	return Resolution{}, &EncodingError{Encoder: nameOf(t), Value: value}
}

func transformDirect(t Transformer, value string, _ FallbackMap) (attempt, error) {
	return transform(t, value, SourceDirect)
}

func matchClass(t Transformer, value string, _ FallbackMap) (attempt, error) {
	fold := cases.Fold()
	want := fold.String(value)
	for _, c := range t.Classes() {
		if fold.String(c) == want {
			return transform(t, c, SourceClassMatch)
		}
	}
	return attempt{}, nil
}

func lookupFallback(_ Transformer, value string, fallback FallbackMap) (attempt, error) {
	if code, ok := fallback[value]; ok {
		return attempt{res: Resolution{Code: code, Source: SourceFallback}, ok: true}, nil
	}
	return attempt{}, nil
}

func transform(t Transformer, value string, src Source) (attempt, error) {
	code, err := t.Transform(value)
	if err != nil {
		if errors.Is(err, ErrUnknownClass) {
			return attempt{}, nil
		}
		return attempt{}, fmt.Errorf("transforming %q: %w", value, err)
	}
	return attempt{res: Resolution{Code: code, Source: src}, ok: true}, nil
}

func nameOf(t Transformer) string {
	if n, ok := t.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
