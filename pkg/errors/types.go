// Copyright 2026 The DataMate-Ops Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the CLI's shared error types and the
// UserVisibleError contract the command layer uses to surface
// actionable suggestions.
package errors

import (
	"fmt"
)

// ValidationError represents user input validation failures.
// Use this for invalid flag values, malformed files, or constraint violations
// outside the metadata layer (which has its own richer ValidationError).
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Hint provides actionable guidance for fixing the error
	Hint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// IsUserVisible implements UserVisibleError.
func (e *ValidationError) IsUserVisible() bool {
	return true
}

// UserMessage implements UserVisibleError.
func (e *ValidationError) UserMessage() string {
	return e.Error()
}

// Suggestion implements UserVisibleError.
func (e *ValidationError) Suggestion() string {
	return e.Hint
}

// PlatformError represents DataMate backend failures.
// Use this for errors originating from the platform's HTTP API.
type PlatformError struct {
	// Endpoint is the API path that failed (e.g., "files/upload/add")
	Endpoint string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Message is the human-readable error message
	Message string

	// Hint provides actionable guidance for resolution
	Hint string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	msg := "platform error"

	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Endpoint)
	}

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	msg = fmt.Sprintf("%s: %s", msg, e.Message)

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *PlatformError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *PlatformError) IsUserVisible() bool {
	return true
}

// UserMessage implements UserVisibleError.
func (e *PlatformError) UserMessage() string {
	return e.Error()
}

// Suggestion implements UserVisibleError.
func (e *PlatformError) Suggestion() string {
	return e.Hint
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "base_url", "dataset")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
