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

package templates

import (
	"strings"
	"testing"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

func TestNewScaffold(t *testing.T) {
	tests := []struct {
		name        string
		operator    string
		wantPackage string
		wantErr     bool
	}{
		{name: "simple", operator: "rowfilter", wantPackage: "rowfilter"},
		{name: "hyphenated", operator: "row-filter", wantPackage: "rowfilter"},
		{name: "uppercase rejected", operator: "RowFilter", wantErr: true},
		{name: "leading digit rejected", operator: "2filter", wantErr: true},
		{name: "path separator rejected", operator: "row/filter", wantErr: true},
		{name: "empty rejected", operator: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScaffold(tt.operator, "")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewScaffold(%q) succeeded, want error", tt.operator)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewScaffold(%q): %v", tt.operator, err)
			}
			if s.Package != tt.wantPackage {
				t.Errorf("Package = %q, want %q", s.Package, tt.wantPackage)
			}
			if s.Description == "" {
				t.Error("expected a default description")
			}
		})
	}
}

func TestRender_RejectsTraversal(t *testing.T) {
	s := &Scaffold{Name: "demo", Package: "demo"}
	for _, name := range []string{"", "../metadata.yaml.tmpl", "sub/operator.go.tmpl", `sub\operator.go.tmpl`} {
		if _, err := s.Render(name); err == nil {
			t.Errorf("Render(%q) succeeded, want error", name)
		}
	}
}

func TestFiles_RendersBundle(t *testing.T) {
	s, err := NewScaffold("word-count", "Counts words in text samples.")
	if err != nil {
		t.Fatalf("NewScaffold: %v", err)
	}

	files, err := s.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	for _, want := range []string{"metadata.yaml", "wordcount.go", "wordcount_test.go"} {
		if _, ok := files[want]; !ok {
			t.Errorf("missing rendered file %q", want)
		}
	}

	manifest, err := metadata.Parse(files["metadata.yaml"])
	if err != nil {
		t.Fatalf("rendered metadata.yaml does not parse: %v", err)
	}
	if manifest.Name != "word-count" {
		t.Errorf("manifest.Name = %q, want %q", manifest.Name, "word-count")
	}
	if manifest.Entry != "wordcount.New" {
		t.Errorf("manifest.Entry = %q, want %q", manifest.Entry, "wordcount.New")
	}
	if manifest.Description != "Counts words in text samples." {
		t.Errorf("manifest.Description = %q", manifest.Description)
	}

	source := string(files["wordcount.go"])
	if !strings.Contains(source, "package wordcount") {
		t.Error("rendered operator source missing package clause")
	}
	if !strings.Contains(source, `registry.Register("wordcount.New"`) {
		t.Error("rendered operator source missing registration")
	}

	test := string(files["wordcount_test.go"])
	if !strings.Contains(test, "package wordcount") {
		t.Error("rendered test missing package clause")
	}
}
