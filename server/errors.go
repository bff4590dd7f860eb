package server

import (
	"fmt"
	"strconv"
)

var (
	// ErrBothModes is returned when a document configures both the http and the https listener.
	ErrBothModes = &ValidationError{Message: "cannot specify both http and https"}
	// ErrNoMode is returned when a document configures neither the http nor the https listener.
	ErrNoMode = &ValidationError{Message: "must specify either http or https"}
)

// SyntaxError reports a document that could not be parsed. Line is zero if the parser did not report a position.
type SyntaxError struct {
	Format  Format
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s syntax error at line %d: %s", e.Format, e.Line, e.Message)
	}

	return fmt.Sprintf("%s syntax error: %s", e.Format, e.Message)
}

// SchemaError reports a required key that is missing, or a key that is not recognised.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	return e.Message + ": " + e.Path
}

// TypeError reports a value that cannot be used as the type expected at Path.
type TypeError struct {
	Path     string
	Expected string
	Value    any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("invalid value for %s: expected %s, got %s", displayPath(e.Path), e.Expected, describe(e.Value))
}

// ValidationError reports a document that is well-typed but breaks the rule that exactly one listener mode is set.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(path string) *SchemaError {
	return &SchemaError{Path: path, Message: "missing required field"}
}

func unknownField(path string) *SchemaError {
	return &SchemaError{Path: path, Message: "unknown field"}
}

func displayPath(path string) string {
	if path == "" {
		return "document"
	}

	return path
}

// describe renders a decoded document value for error messages.
func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case map[string]any:
		return "table"
	case []any, []map[string]any:
		return "array"
	case float64:
		return "float " + strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return "boolean " + strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
