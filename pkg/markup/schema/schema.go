// Package schema embeds the JSON schema of encoded component definitions and
// validates documents against it.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
)

// FileName is the name of the embedded schema.
const FileName = "compdef-schema.json"

//go:embed compdef-schema.json
var schemaJSON []byte

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Bytes returns a copy of the embedded schema.
func Bytes() []byte {
	return append([]byte(nil), schemaJSON...)
}

// Violation is one schema violation.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// Validate checks an encoded definition against the schema.
func Validate(document []byte) ([]Violation, error) {
	s, err := compiled()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, Violation{Field: verr.Field(), Description: verr.Description()})
	}

	return violations, nil
}

// ValidateDefinition encodes def and validates the encoding.
func ValidateDefinition(def compdef.Definition) ([]Violation, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode definition: %w", err)
	}

	return Validate(data)
}
