package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins errors as "field: message; ...".
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// MissingFields returns the fields reported as required-but-absent.
func (r *ValidationResult) MissingFields() []string {
	var out []string
	for _, e := range r.Errors {
		if e.Code == "required" {
			out = append(out, e.Field)
		}
	}
	return out
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

func MustCompile(name, source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// Validate checks any Go value that marshals to JSON.
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "invalid_document"}}}
	}
	return convert(result)
}

// ValidateJSON checks raw JSON bytes.
func (s *Schema) ValidateJSON(raw []byte) *ValidationResult {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "invalid_document"}}}
	}
	return convert(result)
}

func convert(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		field := e.Field()
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				if field == "(root)" {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	return out
}

// CostSimulationSchema checks only the top-level shape of a provider cost reply.
var CostSimulationSchema = MustCompile("cost-simulation", `{
  "type": "object",
  "required": ["categories"],
  "properties": {
    "categories": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "items"],
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "items": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name", "cost"],
              "properties": {
                "name": {"type": "string"},
                "cost": {"type": ["string", "number"]}
              }
            }
          }
        }
      }
    }
  }
}`)

// ImageRequestSchema is the body of the standalone image endpoint.
var ImageRequestSchema = MustCompile("image-request", `{
  "type": "object",
  "required": ["prompt", "breed", "gender", "predictedWeight"],
  "properties": {
    "prompt": {"type": "string", "minLength": 1},
    "breed": {"type": "string", "minLength": 1},
    "gender": {"type": "string", "minLength": 1},
    "predictedWeight": {"type": "number", "exclusiveMinimum": 0},
    "predictedLength": {"type": "number"},
    "predictedHeight": {"type": "number"},
    "referenceImages": {"type": "array", "items": {"type": "string"}}
  }
}`)

// RatingSchema is the body of a satisfaction rating.
var RatingSchema = MustCompile("rating", `{
  "type": "object",
  "required": ["rating"],
  "properties": {
    "rating": {"type": "string", "enum": ["yes", "no"]}
  }
}`)
