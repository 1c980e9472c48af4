package metadata

import (
	"fmt"
)

// Violation classifies parameter validation failures for programmatic handling.
type Violation string

const (
	// ViolationMissing indicates a required parameter was not bound
	ViolationMissing Violation = "missing"

	// ViolationWrongType indicates a value that cannot be represented as the declared type
	ViolationWrongType Violation = "wrong_type"

	// ViolationOutOfRange indicates a numeric value outside the declared min/max
	ViolationOutOfRange Violation = "out_of_range"

	// ViolationNotInEnum indicates a value not listed in the declared enum values
	ViolationNotInEnum Violation = "not_in_enum"

	// ViolationPatternMismatch indicates a string that does not match the declared pattern
	ViolationPatternMismatch Violation = "pattern_mismatch"

	// ViolationUnknownKey indicates a binding for a parameter the schema does not declare
	ViolationUnknownKey Violation = "unknown_key"

	// ViolationConstraint indicates a value the schema accepts but the
	// operator cannot use, such as an expression that does not compile
	ViolationConstraint Violation = "constraint"
)

// ParseError reports a metadata artifact that could not be loaded or is
// structurally invalid. It identifies the offending field where possible.
type ParseError struct {
	// Source is the artifact origin (file path or bundle name), if known
	Source string

	// Field locates the problem within the artifact (e.g., "parameters[2].type")
	Field string

	// Reason explains what is wrong
	Reason string

	// Cause is the underlying error (e.g., a YAML decoding error)
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := "invalid operator metadata"
	if e.Source != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Source)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Field)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *ParseError) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *ParseError) UserMessage() string {
	return e.Error()
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *ParseError) Suggestion() string {
	return "Fix the metadata.yaml artifact and run 'dmops validate' on the bundle"
}

// ValidationError reports a parameter binding that violates the schema.
// It always identifies the offending parameter and the violation kind so
// callers can handle it programmatically.
type ValidationError struct {
	// Param is the name of the offending parameter
	Param string

	// Violation classifies the failure
	Violation Violation

	// Detail is a human-readable description of the specific problem
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s: %s", e.Param, e.Violation, e.Detail)
}

// IsUserVisible implements pkg/errors.UserVisibleError.
func (e *ValidationError) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *ValidationError) UserMessage() string {
	return e.Error()
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *ValidationError) Suggestion() string {
	switch e.Violation {
	case ViolationMissing:
		return fmt.Sprintf("Provide a value with -p %s=<value> or in a params file", e.Param)
	case ViolationUnknownKey:
		return "Run 'dmops show <operator>' to list the declared parameters"
	case ViolationConstraint:
		return fmt.Sprintf("Fix the value of %s; the operator reports what it could not accept", e.Param)
	default:
		return fmt.Sprintf("Check the declared constraints with 'dmops show <operator>' and adjust %s", e.Param)
	}
}
