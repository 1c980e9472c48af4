package registry

import (
	"fmt"
	"strings"
)

// NotFoundError indicates no operator matched an identifier anywhere the
// registry looked. It is returned before any construction takes place.
type NotFoundError struct {
	// ID is the identifier that failed to resolve.
	ID string

	// Searched lists the locations consulted, in search order.
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("operator %q not found (searched %s)", e.ID, strings.Join(e.Searched, ", "))
}

// IsUserVisible marks this error as safe to show to users.
func (e *NotFoundError) IsUserVisible() bool {
	return true
}

// UserMessage returns the user-facing message.
func (e *NotFoundError) UserMessage() string {
	return e.Error()
}

// Suggestion returns actionable guidance.
func (e *NotFoundError) Suggestion() string {
	return "Run 'dmops list' to see the operators available in this build"
}

// LoadError indicates an operator was located but its bundle could not be
// turned into a usable descriptor. It is distinct from NotFoundError: the
// identifier matched something, and that something is broken.
type LoadError struct {
	// ID is the identifier being resolved.
	ID string

	// Reason describes what made the bundle unloadable.
	Reason string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("operator %q: %s", e.ID, e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// IsUserVisible marks this error as safe to show to users.
func (e *LoadError) IsUserVisible() bool {
	return true
}

// UserMessage returns the user-facing message.
func (e *LoadError) UserMessage() string {
	return e.Error()
}

// Suggestion returns actionable guidance.
func (e *LoadError) Suggestion() string {
	return "Run 'dmops validate' against the bundle directory to diagnose it"
}
