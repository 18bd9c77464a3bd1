package artifact

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "schema://predictr/"

var schemaSources = map[string]string{
	KindManifest: `{
		"type": "object",
		"required": ["app", "model"],
		"additionalProperties": false,
		"properties": {
			"app": {"type": "string", "minLength": 1},
			"model": {"type": "string", "minLength": 1},
			"scaler": {"type": "string", "minLength": 1},
			"encoders": {
				"type": "object",
				"additionalProperties": {"type": "string", "minLength": 1}
			}
		}
	}`,
	KindEncoder: `{
		"type": "object",
		"required": ["name", "classes"],
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"classes": {"type": "array", "minItems": 1, "uniqueItems": true, "items": {"type": "string"}},
			"codes": {"type": "array", "items": {"type": "integer"}}
		}
	}`,
	KindScaler: `{
		"type": "object",
		"required": ["kind", "columns"],
		"additionalProperties": false,
		"properties": {
			"kind": {"enum": ["standard", "minmax"]},
			"columns": {"type": "array", "minItems": 1, "items": {"type": "string"}},
			"mean": {"type": "array", "items": {"type": "number"}},
			"scale": {"type": "array", "items": {"type": "number"}},
			"min": {"type": "array", "items": {"type": "number"}},
			"max": {"type": "array", "items": {"type": "number"}}
		}
	}`,
	KindModel: `{
		"type": "object",
		"required": ["kind", "features", "coefficients"],
		"additionalProperties": false,
		"properties": {
			"kind": {"const": "linear"},
			"features": {"type": "array", "minItems": 1, "items": {"type": "string"}},
			"intercept": {"type": "number"},
			"coefficients": {"type": "array", "minItems": 1, "items": {"type": "number"}}
		}
	}`,
}

var compileSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	for kind, src := range schemaSources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parsing %s schema: %w", kind, err)
		}
		if err := c.AddResource(schemaBaseURL+kind+".json", doc); err != nil {
			return nil, fmt.Errorf("adding %s schema: %w", kind, err)
		}
	}

	out := make(map[string]*jsonschema.Schema, len(schemaSources))
	for kind := range schemaSources {
		s, err := c.Compile(schemaBaseURL + kind + ".json")
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", kind, err)
		}
		out[kind] = s
	}
	return out, nil
})

func validate(kind string, inst any) error {
	schemas, err := compileSchemas()
	if err != nil {
		return err
	}
	s, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("no schema for artifact kind: %s", kind)
	}
	if err := s.Validate(inst); err != nil {
		return fmt.Errorf("invalid %s document: %w", kind, err)
	}
	return nil
}
