package operator

import (
	"fmt"
)

// FailureKind classifies anticipated execution failures.
type FailureKind string

const (
	// FailureBadInput indicates a sample that does not satisfy the
	// operator's input contract (wrong file type, missing field)
	FailureBadInput FailureKind = "bad_input"

	// FailurePrecondition indicates input that parsed but does not meet a
	// documented precondition (required columns absent, no sibling file)
	FailurePrecondition FailureKind = "precondition"

	// FailureTransform indicates the transformation itself failed on this
	// sample's content
	FailureTransform FailureKind = "transform"

	// FailureUpstream indicates a dependency (platform API, filesystem)
	// rejected the operation in a way tied to this sample
	FailureUpstream FailureKind = "upstream"
)

// Failure describes an anticipated execution failure. It is data, not an
// error: operators return it inside a Result and the harness surfaces it
// for inspection.
type Failure struct {
	// Kind classifies the failure
	Kind FailureKind `json:"kind"`

	// Message is the human-readable description
	Message string `json:"message"`

	// Field names the offending sample field or record column, if any
	Field string `json:"field,omitempty"`
}

// String renders the failure for logs.
func (f *Failure) String() string {
	if f.Field != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.Field, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the outcome of executing an operator on one sample. Exactly
// one of Artifact and Failure is set; use the constructors to preserve
// that invariant.
type Result struct {
	// Artifact is the transformed sample on success
	Artifact *Sample `json:"artifact,omitempty"`

	// Failure describes why this sample could not be processed
	Failure *Failure `json:"failure,omitempty"`
}

// Ok reports whether the result carries an artifact.
func (r *Result) Ok() bool {
	return r.Failure == nil
}

// NewArtifact builds a successful result.
func NewArtifact(s *Sample) *Result {
	return &Result{Artifact: s}
}

// NewFailure builds a failed result.
func NewFailure(f *Failure) *Result {
	return &Result{Failure: f}
}

// BadInput builds a failed result for a sample violating the input
// contract. field names the offending sample field.
func BadInput(field, format string, args ...interface{}) *Result {
	return NewFailure(&Failure{
		Kind:    FailureBadInput,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Precondition builds a failed result for input that does not meet a
// documented precondition.
func Precondition(field, format string, args ...interface{}) *Result {
	return NewFailure(&Failure{
		Kind:    FailurePrecondition,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// TransformFailed builds a failed result for a transformation that could
// not be applied to this sample's content.
func TransformFailed(field, format string, args ...interface{}) *Result {
	return NewFailure(&Failure{
		Kind:    FailureTransform,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Upstream builds a failed result for a dependency rejection tied to this
// sample.
func Upstream(field, format string, args ...interface{}) *Result {
	return NewFailure(&Failure{
		Kind:    FailureUpstream,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}
