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

package log

import (
	"context"
	"log/slog"
)

// APIRequest describes an outbound platform API call for logging purposes.
type APIRequest struct {
	// Method is the HTTP method of the call.
	Method string

	// URL is the request URL with any credentials already stripped.
	URL string

	// Dataset is the dataset the call operates on, if any.
	Dataset string

	// Attempt is the 1-based retry attempt number.
	Attempt int

	// Metadata contains additional request metadata.
	Metadata map[string]interface{}
}

// APIResponse describes the outcome of a platform API call.
type APIResponse struct {
	// StatusCode is the HTTP status code, or 0 if the call never reached the server.
	StatusCode int

	// Success indicates whether the call succeeded.
	Success bool

	// Error is the error message if the call failed.
	Error string

	// DurationMs is the duration of the call in milliseconds.
	DurationMs int64

	// Metadata contains additional response metadata.
	Metadata map[string]interface{}
}

// LogAPIRequest logs an outbound platform API call before it is sent.
func LogAPIRequest(logger *slog.Logger, req *APIRequest) {
	attrs := []any{
		EventKey, "api_request",
		"method", req.Method,
		"url", req.URL,
	}

	if req.Dataset != "" {
		attrs = append(attrs, DatasetKey, req.Dataset)
	}

	if req.Attempt > 1 {
		attrs = append(attrs, "attempt", req.Attempt)
	}

	for k, v := range req.Metadata {
		attrs = append(attrs, k, v)
	}

	logger.Debug("platform request", attrs...)
}

// LogAPIResponse logs the outcome of a platform API call.
// Failed calls are logged at error level so they stand out during debugging.
func LogAPIResponse(logger *slog.Logger, req *APIRequest, resp *APIResponse) {
	attrs := []any{
		EventKey, "api_response",
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		DurationKey, resp.DurationMs,
	}

	if req.Dataset != "" {
		attrs = append(attrs, DatasetKey, req.Dataset)
	}

	if resp.Error != "" {
		attrs = append(attrs, "error", resp.Error)
	}

	for k, v := range resp.Metadata {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelDebug
	message := "platform request completed"

	if !resp.Success {
		level = slog.LevelError
		message = "platform request failed"
	}

	logger.Log(context.Background(), level, message, attrs...)
}
