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
	"regexp"
	"strconv"

	"github.com/AlecAivazis/survey/v2"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// SurveyPrompter implements Prompter using the survey library.
// It provides interactive terminal prompts with validation and retry logic.
type SurveyPrompter struct {
	interactive bool
}

// NewSurveyPrompter creates a new survey-based prompter.
func NewSurveyPrompter(interactive bool) *SurveyPrompter {
	return &SurveyPrompter{
		interactive: interactive,
	}
}

// message renders the prompt line for a parameter.
func message(spec metadata.ParameterSpec) string {
	if spec.Description != "" {
		return fmt.Sprintf("%s: %s", spec.Name, spec.Description)
	}
	return spec.Name
}

// PromptString collects a string value using survey.Input. A declared
// pattern constraint is enforced before the answer is accepted.
func (sp *SurveyPrompter) PromptString(ctx context.Context, spec metadata.ParameterSpec) (string, error) {
	if !sp.interactive {
		return "", fmt.Errorf("cannot prompt in non-interactive mode")
	}

	var pattern *regexp.Regexp
	if spec.Constraint != nil && spec.Constraint.Pattern != "" {
		// The schema already vetted the pattern at parse time.
		pattern = regexp.MustCompile(spec.Constraint.Pattern)
	}

	var result string
	err := survey.AskOne(&survey.Input{Message: message(spec)}, &result,
		survey.WithValidator(func(ans interface{}) error {
			str, ok := ans.(string)
			if !ok {
				return nil
			}
			if str == "" {
				return fmt.Errorf("a value is required")
			}
			if pattern != nil && !pattern.MatchString(str) {
				return fmt.Errorf("value must match %s", pattern)
			}
			return nil
		}))
	return result, err
}

// PromptInt collects an integer value using survey.Input with validation.
func (sp *SurveyPrompter) PromptInt(ctx context.Context, spec metadata.ParameterSpec) (int64, error) {
	if !sp.interactive {
		return 0, fmt.Errorf("cannot prompt in non-interactive mode")
	}

	var input string
	err := survey.AskOne(&survey.Input{Message: message(spec)}, &input,
		survey.WithValidator(func(ans interface{}) error {
			str, ok := ans.(string)
			if !ok {
				return nil
			}
			value, err := strconv.ParseInt(str, 10, 64)
			if err != nil {
				return fmt.Errorf("must be an integer")
			}
			return checkRange(spec, float64(value))
		}))
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(input, 10, 64)
}

// PromptFloat collects a floating-point value using survey.Input with
// validation.
func (sp *SurveyPrompter) PromptFloat(ctx context.Context, spec metadata.ParameterSpec) (float64, error) {
	if !sp.interactive {
		return 0, fmt.Errorf("cannot prompt in non-interactive mode")
	}

	var input string
	err := survey.AskOne(&survey.Input{Message: message(spec)}, &input,
		survey.WithValidator(func(ans interface{}) error {
			str, ok := ans.(string)
			if !ok {
				return nil
			}
			value, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return fmt.Errorf("must be a number")
			}
			return checkRange(spec, value)
		}))
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(input, 64)
}

// PromptBool collects a boolean value using survey.Confirm.
func (sp *SurveyPrompter) PromptBool(ctx context.Context, spec metadata.ParameterSpec) (bool, error) {
	if !sp.interactive {
		return false, fmt.Errorf("cannot prompt in non-interactive mode")
	}

	var result bool
	err := survey.AskOne(&survey.Confirm{Message: message(spec)}, &result)
	return result, err
}

// PromptEnum collects a selection using survey.Select over the declared
// values.
func (sp *SurveyPrompter) PromptEnum(ctx context.Context, spec metadata.ParameterSpec) (string, error) {
	if !sp.interactive {
		return "", fmt.Errorf("cannot prompt in non-interactive mode")
	}
	if spec.Constraint == nil || len(spec.Constraint.Values) == 0 {
		return "", fmt.Errorf("enum parameter %s declares no values", spec.Name)
	}

	var result string
	err := survey.AskOne(&survey.Select{
		Message: message(spec),
		Options: spec.Constraint.Values,
	}, &result)
	return result, err
}

// IsInteractive returns whether the prompter can display interactive prompts.
func (sp *SurveyPrompter) IsInteractive() bool {
	return sp.interactive
}

// checkRange enforces a numeric constraint during prompting so the user
// retries instead of failing validation afterwards.
func checkRange(spec metadata.ParameterSpec, value float64) error {
	c := spec.Constraint
	if c == nil {
		return nil
	}
	if c.Min != nil && value < *c.Min {
		return fmt.Errorf("must be at least %v", *c.Min)
	}
	if c.Max != nil && value > *c.Max {
		return fmt.Errorf("must be at most %v", *c.Max)
	}
	return nil
}
