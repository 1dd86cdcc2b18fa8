package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrNoJSON is returned when a reply carries no JSON object
var ErrNoJSON = errors.New("llm: no json object in reply")

// ExtractJSON returns the outermost {...} region of s, tolerating code
// fences and prose around it.
func ExtractJSON(s string) ([]byte, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return []byte(s[start : end+1]), nil
	}
	return nil, ErrNoJSON
}

// Schema validates structured replies before they are decoded.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// NewSchema compiles a JSON schema document
func NewSchema(name, doc string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustSchema is NewSchema for package-level schemas
func MustSchema(name, doc string) *Schema {
	s, err := NewSchema(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks raw JSON against the schema
func (s *Schema) Validate(raw []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%s: validation error: %w", s.name, err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, fmt.Sprintf("- %s", e))
		}
		return fmt.Errorf("%s: reply does not match schema:\n%s", s.name, strings.Join(errs, "\n"))
	}
	return nil
}

// CompleteStructured asks c for a JSON object, validates it against schema
// (when non-nil) and decodes it into out.
func CompleteStructured(ctx context.Context, c Client, system, user string, schema *Schema, out interface{}, opts ...CallOption) error {
	if c == nil {
		return ErrLLMDisabled
	}
	opts = append([]CallOption{WithTemperature(0.3)}, opts...)
	opts = append(opts, WithJSONMode())

	reply, err := c.Chat(ctx, system, user, opts...)
	if err != nil {
		return err
	}
	raw, err := ExtractJSON(reply)
	if err != nil {
		return err
	}
	if schema != nil {
		if err := schema.Validate(raw); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("llm: decode structured reply: %w", err)
	}
	return nil
}
