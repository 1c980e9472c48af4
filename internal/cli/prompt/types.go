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

// Package prompt collects missing required operator parameters
// interactively. It only ever prompts for required parameters, which by
// the metadata rules carry no default.
package prompt

import (
	"context"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// Prompter collects one parameter value per call. Implementations decide
// how (terminal prompts, scripted answers in tests).
type Prompter interface {
	// PromptString collects a free-form string value.
	PromptString(ctx context.Context, spec metadata.ParameterSpec) (string, error)

	// PromptInt collects an integer value.
	PromptInt(ctx context.Context, spec metadata.ParameterSpec) (int64, error)

	// PromptFloat collects a floating-point value.
	PromptFloat(ctx context.Context, spec metadata.ParameterSpec) (float64, error)

	// PromptBool collects a yes/no value.
	PromptBool(ctx context.Context, spec metadata.ParameterSpec) (bool, error)

	// PromptEnum collects a selection from the spec's declared values.
	PromptEnum(ctx context.Context, spec metadata.ParameterSpec) (string, error)

	// IsInteractive reports whether the prompter can actually prompt.
	IsInteractive() bool
}
