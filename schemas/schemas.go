// Package schemas embeds the JSON Schemas the pipeline checks model output
// against, and provides validation helpers over them.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed extraction_response.schema.json
var extractionResponseSchema string

var (
	compileOnce    sync.Once
	compiledSchema *gojsonschema.Schema
	compiledErr    error
)

// ParseError means the document was not valid JSON at all.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document is not valid JSON: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError means the document parsed but violates the schema.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one violation at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:")
	for _, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", fe.Field, fe.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

func extractionSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compiledErr = gojsonschema.NewSchema(
			gojsonschema.NewStringLoader(extractionResponseSchema))
	})
	return compiledSchema, compiledErr
}

// ValidateExtractionResponse checks a raw model response document against
// the extraction response schema. It returns *ParseError for malformed
// JSON, *ValidationError for a schema violation, and nil when valid.
func ValidateExtractionResponse(document string) error {
	schema, err := extractionSchema()
	if err != nil {
		return fmt.Errorf("failed to compile extraction response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return &ParseError{Cause: err}
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, re := range result.Errors() {
			verr.Errors = append(verr.Errors, FieldError{
				Field:   re.Field(),
				Message: re.Description(),
			})
		}
		return verr
	}
	return nil
}
