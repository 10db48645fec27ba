package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DefaultSuccessCode is the meta.code the platform uses for success.
const DefaultSuccessCode = 200

// Meta is the status block of every response.
type Meta struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// Envelope wraps every platform response.
type Envelope struct {
	Meta Meta            `json:"meta"`
	Data json.RawMessage `json:"data,omitempty"`
}

var envelopeSchema = map[string]any{
	"type":     "object",
	"required": []any{"meta"},
	"properties": map[string]any{
		"meta": map[string]any{
			"type":     "object",
			"required": []any{"code"},
			"properties": map[string]any{
				"code":    map[string]any{"type": "integer"},
				"message": map[string]any{"type": []any{"string", "null"}},
			},
		},
	},
}

var accuracySchema = map[string]any{
	"type":     "object",
	"required": []any{"pronunciationAccuracy", "isLetterCorrectAllWords"},
	"properties": map[string]any{
		"pronunciationAccuracy":   map[string]any{"type": []any{"number", "string"}},
		"realTranscriptsIpa":      map[string]any{"type": "string"},
		"matchedTranscriptsIpa":   map[string]any{"type": "string"},
		"isLetterCorrectAllWords": map[string]any{"type": "string"},
	},
}

var sampleSchema = map[string]any{
	"type":     "object",
	"required": []any{"realTranscript"},
	"properties": map[string]any{
		"realTranscript":        map[string]any{"type": "string", "minLength": 1},
		"ipaTranscript":         map[string]any{"type": "string"},
		"transcriptTranslation": map[string]any{"type": []any{"string", "null"}},
	},
}

// schemaCache holds compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

func compiled(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// Round-trip so the compiler sees plain JSON values.
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", name, err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://lingoquiz/%s.json", name)
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}
	schemaCache.Store(name, s)
	return s, nil
}

// validate checks raw JSON against a named schema.
func validate(name string, def map[string]any, raw []byte) error {
	s, err := compiled(name, def)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s schema: %w", name, err)
	}
	return nil
}

// decodeEnvelope parses and validates a response body.
func decodeEnvelope(body []byte) (*Envelope, error) {
	if err := validate("envelope", envelopeSchema, body); err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// Number accepts a JSON number or a numeric string.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}
