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

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// MockPrompter answers prompts from a scripted map, for tests.
type MockPrompter struct {
	// Answers maps parameter names to the value to return.
	Answers map[string]interface{}

	// Asked records the parameter names prompted for, in order.
	Asked []string

	// Interactive is what IsInteractive reports.
	Interactive bool
}

// NewMockPrompter creates a mock prompter with the given scripted answers.
func NewMockPrompter(answers map[string]interface{}) *MockPrompter {
	return &MockPrompter{Answers: answers, Interactive: true}
}

func (m *MockPrompter) answer(name string) (interface{}, error) {
	m.Asked = append(m.Asked, name)
	value, ok := m.Answers[name]
	if !ok {
		return nil, fmt.Errorf("no scripted answer for %q", name)
	}
	return value, nil
}

// PromptString returns the scripted string answer.
func (m *MockPrompter) PromptString(ctx context.Context, spec metadata.ParameterSpec) (string, error) {
	value, err := m.answer(spec.Name)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("scripted answer for %q is %T, want string", spec.Name, value)
	}
	return s, nil
}

// PromptInt returns the scripted integer answer.
func (m *MockPrompter) PromptInt(ctx context.Context, spec metadata.ParameterSpec) (int64, error) {
	value, err := m.answer(spec.Name)
	if err != nil {
		return 0, err
	}
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("scripted answer for %q is %T, want int", spec.Name, value)
}

// PromptFloat returns the scripted float answer.
func (m *MockPrompter) PromptFloat(ctx context.Context, spec metadata.ParameterSpec) (float64, error) {
	value, err := m.answer(spec.Name)
	if err != nil {
		return 0, err
	}
	f, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("scripted answer for %q is %T, want float64", spec.Name, value)
	}
	return f, nil
}

// PromptBool returns the scripted boolean answer.
func (m *MockPrompter) PromptBool(ctx context.Context, spec metadata.ParameterSpec) (bool, error) {
	value, err := m.answer(spec.Name)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("scripted answer for %q is %T, want bool", spec.Name, value)
	}
	return b, nil
}

// PromptEnum returns the scripted enum answer.
func (m *MockPrompter) PromptEnum(ctx context.Context, spec metadata.ParameterSpec) (string, error) {
	return m.PromptString(ctx, spec)
}

// IsInteractive reports the configured interactivity.
func (m *MockPrompter) IsInteractive() bool {
	return m.Interactive
}
