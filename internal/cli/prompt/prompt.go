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

package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// MissingSpecs returns the specs of required parameters that have no
// binding in values, in declaration order.
func MissingSpecs(schema *metadata.Schema, values map[string]interface{}) []metadata.ParameterSpec {
	var missing []metadata.ParameterSpec
	for _, name := range schema.Missing(values) {
		if spec, ok := schema.Param(name); ok {
			missing = append(missing, spec)
		}
	}
	return missing
}

// Collect prompts for each missing spec and writes the typed answers into
// values. The caller must have verified the prompter is interactive.
func Collect(ctx context.Context, p Prompter, missing []metadata.ParameterSpec, values map[string]interface{}) error {
	if !p.IsInteractive() {
		return fmt.Errorf("cannot prompt in non-interactive mode")
	}

	for _, spec := range missing {
		var (
			answer interface{}
			err    error
		)
		switch spec.Type {
		case metadata.TypeInt:
			answer, err = p.PromptInt(ctx, spec)
		case metadata.TypeFloat:
			answer, err = p.PromptFloat(ctx, spec)
		case metadata.TypeBool:
			answer, err = p.PromptBool(ctx, spec)
		case metadata.TypeEnum:
			answer, err = p.PromptEnum(ctx, spec)
		default:
			answer, err = p.PromptString(ctx, spec)
		}
		if err != nil {
			return fmt.Errorf("collecting %s: %w", spec.Name, err)
		}
		values[spec.Name] = answer
	}
	return nil
}

// FormatMissing renders a structured message listing missing required
// parameters, for non-interactive failures.
func FormatMissing(operatorName string, missing []metadata.ParameterSpec) string {
	var sb strings.Builder
	sb.WriteString("Missing required parameters:\n")
	for _, spec := range missing {
		sb.WriteString(fmt.Sprintf("  - %s (%s)", spec.Name, spec.Type))
		if spec.Description != "" {
			sb.WriteString(": " + spec.Description)
		}
		sb.WriteString("\n")
		if spec.Constraint != nil && len(spec.Constraint.Values) > 0 {
			sb.WriteString(fmt.Sprintf("    Valid values: %s\n", strings.Join(spec.Constraint.Values, ", ")))
		}
	}
	sb.WriteString(fmt.Sprintf("\nRun 'dmops show %s' to see all parameters.", operatorName))
	return sb.String()
}
