// Package tools implements C9, the closed set of operations exposed to
// agents. Every operation validates its input against a declared schema
// before touching C5/C6/C7/C8; validation failures are returned as a
// structured *ValidationError, never a panic or raw downstream error (§7).
package tools

import "fmt"

// Subcode enumerates the validation failure kinds a caller can branch on.
type Subcode string

const (
	SubcodeMissingField   Subcode = "missing_field"
	SubcodeOutOfRange     Subcode = "out_of_range"
	SubcodeTooShort       Subcode = "too_short"
	SubcodeInvalidValue   Subcode = "invalid_value"
)

// ValidationError is the structured error surfaced synchronously for any
// ErrInvalidInput condition (§7). It never wraps downstream errors or
// document content.
type ValidationError struct {
	Field   string
	Subcode Subcode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Message)
}

func invalid(field string, subcode Subcode, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Subcode: subcode, Message: fmt.Sprintf(format, args...)}
}

func requireNonEmpty(field, value string) error {
	if value == "" {
		return invalid(field, SubcodeMissingField, "%s is required", field)
	}
	return nil
}
