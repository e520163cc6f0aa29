// Package schema checks raw documents against the AppData shape. It is
// advisory only: the import paths report problems but never reject a
// write, since the raw document capability is caller-trusted by contract.
package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// DocumentSchema describes the persisted AppData document.
const DocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["sessions", "settings"],
  "properties": {
    "sessions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "startTime", "date", "subActivities"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "startTime": {"type": "integer"},
          "endTime": {"type": ["integer", "null"]},
          "date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
          "note": {"type": "string"},
          "subActivities": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "title", "startTime"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string"},
                "startTime": {"type": "integer"},
                "endTime": {"type": ["integer", "null"]}
              }
            }
          }
        }
      }
    },
    "settings": {
      "type": "object",
      "required": ["weeklyHoursTarget", "userName"],
      "properties": {
        "weeklyHoursTarget": {"type": "integer", "minimum": 1},
        "userName": {"type": "string"}
      }
    }
  }
}`

// Validator checks documents against the AppData schema.
type Validator struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewValidator creates a document validator.
func NewValidator() *Validator {
	return &Validator{
		schemaLoader: gojsonschema.NewStringLoader(DocumentSchema),
	}
}

// Check validates a raw document and returns the list of problems found.
// A nil error with an empty list means the document matches the schema.
func (v *Validator) Check(content string) ([]string, error) {
	documentLoader := gojsonschema.NewStringLoader(content)
	result, err := gojsonschema.Validate(v.schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("document is not valid JSON: %w", err)
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}
