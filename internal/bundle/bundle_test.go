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

package bundle

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

const validManifest = `
name: row-filter
version: 1.2.0
entry: rowfilter
parameters:
  - name: expression
    type: string
    required: true
`

// writeBundle lays out a bundle directory under a temp root.
func writeBundle(t *testing.T, name, manifest string, sources ...string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, metadata.ArtifactName), []byte(manifest), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for _, src := range sources {
		if err := os.WriteFile(filepath.Join(dir, src), []byte("package rowfilter\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

func TestCheckValidBundle(t *testing.T) {
	dir := writeBundle(t, "row-filter", validManifest, "operator.go")

	result, err := Check(dir)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Manifest.Name != "row-filter" {
		t.Errorf("Manifest.Name = %q", result.Manifest.Name)
	}
	if len(result.EntrySources) != 1 || result.EntrySources[0] != "operator.go" {
		t.Errorf("EntrySources = %v", result.EntrySources)
	}
}

func TestCheckMissingArtifact(t *testing.T) {
	dir := writeBundle(t, "row-filter", "", "operator.go")

	if _, err := Check(dir); err == nil {
		t.Error("Check() succeeded without metadata artifact")
	}
}

func TestCheckMalformedArtifact(t *testing.T) {
	dir := writeBundle(t, "row-filter", "name: [broken\n", "operator.go")

	_, err := Check(dir)
	var perr *metadata.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("Check() error = %v, want *metadata.ParseError", err)
	}
}

func TestCheckNameMismatch(t *testing.T) {
	dir := writeBundle(t, "wrong-name", validManifest, "operator.go")

	_, err := Check(dir)
	var perr *metadata.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Check() error = %v, want *metadata.ParseError", err)
	}
	if perr.Field != "name" {
		t.Errorf("ParseError.Field = %q, want name", perr.Field)
	}
}

func TestCheckNoEntrySource(t *testing.T) {
	dir := writeBundle(t, "row-filter", validManifest)

	if _, err := Check(dir); err == nil {
		t.Error("Check() succeeded without an entry source")
	}
}

func TestCheckIgnoresTestFiles(t *testing.T) {
	dir := writeBundle(t, "row-filter", validManifest, "operator.go", "operator_test.go")

	result, err := Check(dir)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(result.EntrySources) != 1 {
		t.Errorf("EntrySources = %v, test files should be excluded", result.EntrySources)
	}
}

func TestPackProducesNamedArchive(t *testing.T) {
	dir := writeBundle(t, "row-filter", validManifest, "operator.go")
	outDir := t.TempDir()

	archivePath, err := Pack(dir, outDir)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if filepath.Base(archivePath) != "row-filter-1.2.0.tar.gz" {
		t.Errorf("archive name = %q", filepath.Base(archivePath))
	}

	names := archiveEntries(t, archivePath)
	want := map[string]bool{
		"row-filter/metadata.yaml": true,
		"row-filter/operator.go":   true,
	}
	for name := range want {
		if !names[name] {
			t.Errorf("archive missing entry %q (has %v)", name, names)
		}
	}
}

func TestPackInvalidBundleFails(t *testing.T) {
	dir := writeBundle(t, "row-filter", "", "operator.go")

	if _, err := Pack(dir, t.TempDir()); err == nil {
		t.Error("Pack() succeeded on an invalid bundle")
	}
}

// archiveEntries reads back the entry names from a tar.gz archive.
func archiveEntries(t *testing.T, path string) map[string]bool {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()

	names := make(map[string]bool)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		names[hdr.Name] = true
	}

	return names
}
