// Package schemas provides JSON Schema validation for component spec and BOM files.
package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema files, relative to the repository root.
const (
	ComponentSpecSchema = "schemas/component_spec.schema.json"
	BOMSchema           = "schemas/bom.schema.json"
)

// ResolveSchemaPath returns the absolute path of a schema file looked up from the working
// directory and up to two parents, or "" when none exists. Tests run from package directories.
func ResolveSchemaPath(relativePath string) string {
	candidates := []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	}

	for _, candidate := range candidates {
		if absPath, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(absPath); err == nil {
				return absPath
			}
		}
	}

	return ""
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// loadSchema compiles the schema file at path.
func loadSchema(path string) (*gojsonschema.Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil, fmt.Errorf("schema file not found: %s", abs)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + abs))
	if err != nil {
		return nil, &SchemaLoadError{Path: abs, Message: "invalid schema", Cause: err}
	}
	return schema, nil
}

// ValidateDocument validates in-memory JSON against a JSON Schema file.
func ValidateDocument(schemaPath string, data []byte) error {
	schema, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return toValidationError(result, "")
}

// ValidateEach validates every element of a JSON array against the item schema. Field paths in
// the returned ValidationError are prefixed with the element index, e.g. "[2].resistance".
func ValidateEach(itemSchemaPath string, data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "expected a JSON array: " + err.Error()}}}
	}

	schema, err := loadSchema(itemSchemaPath)
	if err != nil {
		return err
	}

	combined := &ValidationError{}
	for i, item := range items {
		result, err := schema.Validate(gojsonschema.NewBytesLoader(item))
		if err != nil {
			return fmt.Errorf("failed to validate element %d: %w", i, err)
		}
		if verr, ok := toValidationError(result, fmt.Sprintf("[%d]", i)).(*ValidationError); ok {
			combined.Errors = append(combined.Errors, verr.Errors...)
		}
	}
	if len(combined.Errors) > 0 {
		return combined
	}
	return nil
}

func toValidationError(result *gojsonschema.Result, prefix string) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		switch {
		case field == "" || field == "(root)":
			field = "(root)"
			if prefix != "" {
				field = prefix
			}
		case prefix != "":
			field = prefix + "." + field
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
