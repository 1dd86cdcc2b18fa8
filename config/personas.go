package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// PersonaOverride replaces selected fields of a built-in persona
type PersonaOverride struct {
	Description  string   `yaml:"description" json:"description,omitempty"`
	SystemPrompt string   `yaml:"system_prompt" json:"system_prompt,omitempty"`
	FeeADA       *float64 `yaml:"fee_ada" json:"fee_ada,omitempty"`
	Status       string   `yaml:"status" json:"status,omitempty"`
}

// PersonaFile is the top-level YAML document
type PersonaFile struct {
	Personas map[string]PersonaOverride `yaml:"personas"`
}

const personaSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["personas"],
  "properties": {
    "personas": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "description": {"type": "string", "minLength": 1},
          "system_prompt": {"type": "string", "minLength": 1},
          "fee_ada": {"type": "number", "minimum": 0},
          "status": {"type": "string", "enum": ["online", "offline", "busy"]}
        }
      }
    }
  }
}`

var personaSchemaCompiled = mustCompile(personaSchema)

func mustCompile(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile persona schema: %v", err))
	}
	return schema
}

// LoadPersonaOverrides reads a YAML override file, expanding ${VAR}
// references, and validates it before decoding.
func LoadPersonaOverrides(path string) (map[string]PersonaOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read personas file: %w", err)
	}
	return ParsePersonaOverrides([]byte(expandEnvVars(string(data))))
}

// ParsePersonaOverrides validates and decodes an override document
func ParsePersonaOverrides(data []byte) (map[string]PersonaOverride, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse personas file: %w", err)
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert personas file: %w", err)
	}

	result, err := personaSchemaCompiled.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, fmt.Sprintf("- %s", e))
		}
		return nil, fmt.Errorf("personas validation failed:\n%s", strings.Join(errs, "\n"))
	}

	var pf PersonaFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to decode personas file: %w", err)
	}
	return pf.Personas, nil
}
