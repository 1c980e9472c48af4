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

// Package templates holds the embedded scaffolding for 'dmops new'.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// Embed scaffolding templates into the binary for offline availability
//
//go:embed *.tmpl
var embeddedFS embed.FS

// Scaffold is the data substituted into every template.
type Scaffold struct {
	// Name is the operator identifier, which must match the bundle
	// directory name.
	Name string

	// Package is the Go package name derived from Name.
	Package string

	// Description seeds the metadata artifact.
	Description string
}

// operatorNamePattern keeps scaffolded names usable as directory names
// and resolvable identifiers.
var operatorNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateName reports whether name is usable as an operator name.
func ValidateName(name string) error {
	if !operatorNamePattern.MatchString(name) {
		return fmt.Errorf("operator name %q must be lowercase letters, digits, and hyphens, starting with a letter", name)
	}
	return nil
}

// NewScaffold derives the template data for an operator name.
func NewScaffold(name, description string) (*Scaffold, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if description == "" {
		description = "Describe what " + name + " does."
	}
	return &Scaffold{
		Name:        name,
		Package:     strings.ReplaceAll(name, "-", ""),
		Description: description,
	}, nil
}

// Files returns the rendered bundle files keyed by their file name inside
// the bundle directory.
func (s *Scaffold) Files() (map[string][]byte, error) {
	out := make(map[string][]byte, 3)
	for name, tmpl := range map[string]string{
		"metadata.yaml":        "metadata.yaml.tmpl",
		s.Package + ".go":      "operator.go.tmpl",
		s.Package + "_test.go": "operator_test.go.tmpl",
	} {
		rendered, err := s.Render(tmpl)
		if err != nil {
			return nil, err
		}
		out[name] = rendered
	}
	return out, nil
}

// Render renders one embedded template with the scaffold data.
func (s *Scaffold) Render(templateName string) ([]byte, error) {
	// Validate template name to prevent path traversal (defense-in-depth)
	if templateName == "" || strings.Contains(templateName, "..") || strings.Contains(templateName, "/") || strings.Contains(templateName, "\\") {
		return nil, fmt.Errorf("invalid template name: %q", templateName)
	}

	content, err := embeddedFS.ReadFile(templateName)
	if err != nil {
		return nil, fmt.Errorf("template %q not found: %w", templateName, err)
	}

	tmpl, err := template.New(templateName).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("failed to render template %q: %w", templateName, err)
	}
	return buf.Bytes(), nil
}
