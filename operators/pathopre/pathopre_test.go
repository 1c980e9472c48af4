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

package pathopre

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

// newPreprocess builds the operator through its manifest, the way the
// harness does.
func newPreprocess(t *testing.T, values map[string]interface{}) *Preprocess {
	t.Helper()
	manifest, err := metadata.Parse(manifestYAML)
	if err != nil {
		t.Fatalf("parsing embedded manifest: %v", err)
	}
	bindings, err := manifest.Schema().Validate(values)
	if err != nil {
		t.Fatalf("validating values: %v", err)
	}
	mapper, err := New(bindings)
	if err != nil {
		t.Fatalf("constructing operator: %v", err)
	}
	return mapper.(*Preprocess)
}

// writeExport lays out a hospital export directory: a diagnosis CSV and a
// sibling slide CSV.
func writeExport(t *testing.T, diagnosis, slides string) (dir, diagnosisPath string) {
	t.Helper()
	dir = t.TempDir()
	diagnosisPath = filepath.Join(dir, "diagnosis.csv")
	if err := os.WriteFile(diagnosisPath, []byte(diagnosis), 0o644); err != nil {
		t.Fatal(err)
	}
	if slides != "" {
		if err := os.WriteFile(filepath.Join(dir, "slides.csv"), []byte(slides), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, diagnosisPath
}

func exportSample(path string) *operator.Sample {
	return &operator.Sample{
		FileName: filepath.Base(path),
		FileType: "csv",
		FilePath: path,
	}
}

func decodeRecords(t *testing.T, artifact *operator.Sample) []map[string]string {
	t.Helper()
	var records []map[string]string
	if err := json.Unmarshal([]byte(artifact.Text), &records); err != nil {
		t.Fatalf("artifact is not a JSON record array: %v", err)
	}
	return records
}

func TestExecute_JoinsAndEmitsArtifact(t *testing.T) {
	_, path := writeExport(t,
		"case_no,diagnosis\nC1,benign\nC2,malignant\nC3,benign\n",
		"case_no,slide_path,thumbnail_path\nC1,slides/c1.svs,thumbs/c1.png\nC2,slides/c2.svs,thumbs/c2.png\n",
	)

	p := newPreprocess(t, map[string]interface{}{"pathTransformer": ""})
	result, err := p.Execute(context.Background(), exportSample(path))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("expected an artifact, got failure: %v", result.Failure)
	}

	artifact := result.Artifact
	if artifact.FileName != ArtifactFileName {
		t.Errorf("FileName = %q, want %q", artifact.FileName, ArtifactFileName)
	}
	if artifact.FileType != "json" {
		t.Errorf("FileType = %q, want json", artifact.FileType)
	}

	records := decodeRecords(t, artifact)
	if len(records) != 2 {
		t.Fatalf("expected 2 joined records (C3 has no slide), got %d", len(records))
	}
	if records[0]["case_no"] != "C1" || records[0]["diagnosis"] != "benign" {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[0]["slide_path"] != "slides/c1.svs" {
		t.Errorf("slide_path = %q", records[0]["slide_path"])
	}
}

func TestExecute_InputContract(t *testing.T) {
	p := newPreprocess(t, nil)

	tests := []struct {
		name   string
		sample *operator.Sample
		kind   operator.FailureKind
	}{
		{"no file path", &operator.Sample{}, operator.FailureBadInput},
		{"not a csv", &operator.Sample{FilePath: "/data/report.pdf"}, operator.FailureBadInput},
		{"unreadable csv", &operator.Sample{FilePath: "/does/not/exist.csv"}, operator.FailureBadInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Execute(context.Background(), tt.sample)
			if err != nil {
				t.Fatalf("contract violations must be failures, not errors: %v", err)
			}
			if result.Ok() {
				t.Fatal("expected a failure result")
			}
			if result.Failure.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", result.Failure.Kind, tt.kind)
			}
		})
	}
}

func TestExecute_MissingColumns(t *testing.T) {
	_, path := writeExport(t,
		"case_no,severity\nC1,3\n",
		"case_no,slide_path\nC1,slides/c1.svs\n",
	)

	p := newPreprocess(t, nil)
	result, err := p.Execute(context.Background(), exportSample(path))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Ok() || result.Failure.Kind != operator.FailurePrecondition {
		t.Fatalf("expected a precondition failure, got %+v", result)
	}
}

func TestExecute_NoSiblingCSV(t *testing.T) {
	_, path := writeExport(t, "case_no,diagnosis\nC1,benign\n", "")

	p := newPreprocess(t, nil)
	result, err := p.Execute(context.Background(), exportSample(path))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Ok() || result.Failure.Kind != operator.FailurePrecondition {
		t.Fatalf("expected a precondition failure, got %+v", result)
	}
}

func TestExecute_SdpcFiltering(t *testing.T) {
	const diagnosis = "case_no,diagnosis\nC1,benign\nC2,benign\nC3,benign\n"
	const slides = "case_no,slide_path,thumbnail_path\n" +
		"C1,slides/c1.sdpc,thumbs/c1.png\n" + // sdpc with thumbnail
		"C2,slides/c2.sdpc,\n" + // sdpc without thumbnail
		"C3,,thumbs/c3.png\n" // empty slide path

	t.Run("keeps sdpc with thumbnail", func(t *testing.T) {
		_, path := writeExport(t, diagnosis, slides)
		p := newPreprocess(t, map[string]interface{}{"pathTransformer": ""})

		result, err := p.Execute(context.Background(), exportSample(path))
		if err != nil {
			t.Fatal(err)
		}
		records := decodeRecords(t, result.Artifact)
		if len(records) != 1 || records[0]["case_no"] != "C1" {
			t.Errorf("expected only C1 to survive, got %v", records)
		}
	})

	t.Run("ignoreSdpc drops all sdpc", func(t *testing.T) {
		_, path := writeExport(t, diagnosis, slides)
		p := newPreprocess(t, map[string]interface{}{"pathTransformer": "", "ignoreSdpc": true})

		result, err := p.Execute(context.Background(), exportSample(path))
		if err != nil {
			t.Fatal(err)
		}
		if records := decodeRecords(t, result.Artifact); len(records) != 0 {
			t.Errorf("expected no records, got %v", records)
		}
	})

	t.Run("missing thumbnail column forces sdpc drop", func(t *testing.T) {
		_, path := writeExport(t, diagnosis,
			"case_no,slide_path\nC1,slides/c1.sdpc\nC2,slides/c2.svs\n")
		p := newPreprocess(t, map[string]interface{}{"pathTransformer": ""})

		result, err := p.Execute(context.Background(), exportSample(path))
		if err != nil {
			t.Fatal(err)
		}
		records := decodeRecords(t, result.Artifact)
		if len(records) != 1 || records[0]["case_no"] != "C2" {
			t.Errorf("expected only the .svs slide to survive, got %v", records)
		}
	})
}

func TestTransformPath(t *testing.T) {
	tests := []struct {
		name string
		rule string
		path string
		want string
	}{
		{"empty rule keeps path", "", "slides/c1.svs", "slides/c1.svs"},
		{"placeholder keeps path", "<>", "/abs/c1.svs", "/abs/c1.svs"},
		{"prefix replaced", "storage/:/mnt/data/", "storage/c1.svs", "/mnt/data/c1.svs"},
		{"prefix missing keeps path", "storage/:/mnt/data/", "other/c1.svs", "other/c1.svs"},
		{"relative path mounted", "/mnt/ruipath/hospital_data/", "slides/c1.svs", "/mnt/ruipath/hospital_data/slides/c1.svs"},
		{"absolute path loses root", "/mnt/data", "/slides/c1.svs", "/mnt/data/slides/c1.svs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPreprocess(t, map[string]interface{}{"pathTransformer": tt.rule})
			if got := p.transformPath(tt.path); got != tt.want {
				t.Errorf("transformPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExecute_UploadRegistersRecords(t *testing.T) {
	keyring.MockInit()

	var requests []struct {
		Files []struct {
			FilePath string                 `json:"filePath"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"files"`
	}
	var paths []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body struct {
			Files []struct {
				FilePath string                 `json:"filePath"`
				Metadata map[string]interface{} `json:"metadata"`
			} `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding upload body: %v", err)
		}
		requests = append(requests, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATAMATE_BASE_URL", server.URL)

	_, path := writeExport(t,
		"case_no,diagnosis\nC1,benign\n",
		"case_no,slide_path,thumbnail_path\nC1,slides/c1.svs,thumbs/c1.png\n",
	)

	sample := exportSample(path)
	sample.ExportPath = "/datasets/patho-2026"

	p := newPreprocess(t, map[string]interface{}{"pathTransformer": "", "upload": true})
	result, err := p.Execute(context.Background(), sample)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Ok() {
		t.Fatalf("expected an artifact, got failure: %v", result.Failure)
	}

	if len(requests) != 2 {
		t.Fatalf("expected slide and thumbnail uploads, got %d requests", len(requests))
	}
	for _, p := range paths {
		if p != "/api/data-management/datasets/patho-2026/files/upload/add" {
			t.Errorf("unexpected ingestion path %q", p)
		}
	}

	slideBatch := requests[0]
	if len(slideBatch.Files) != 1 || slideBatch.Files[0].FilePath != "slides/c1.svs" {
		t.Fatalf("unexpected slide batch: %+v", slideBatch)
	}
	if slideBatch.Files[0].Metadata["diagnosis"] != "benign" {
		t.Errorf("slide metadata missing diagnosis: %v", slideBatch.Files[0].Metadata)
	}

	thumbBatch := requests[1]
	if len(thumbBatch.Files) != 1 || thumbBatch.Files[0].FilePath != "thumbs/c1.png" {
		t.Fatalf("unexpected thumbnail batch: %+v", thumbBatch)
	}
	if thumbBatch.Files[0].Metadata != nil {
		t.Errorf("thumbnail records carry no metadata, got %v", thumbBatch.Files[0].Metadata)
	}
}

func TestExecute_UploadWithoutDataset(t *testing.T) {
	_, path := writeExport(t,
		"case_no,diagnosis\nC1,benign\n",
		"case_no,slide_path,thumbnail_path\nC1,slides/c1.svs,thumbs/c1.png\n",
	)

	p := newPreprocess(t, map[string]interface{}{"upload": true})
	result, err := p.Execute(context.Background(), exportSample(path))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Ok() || result.Failure.Kind != operator.FailurePrecondition {
		t.Fatalf("expected a precondition failure, got %+v", result)
	}
	if result.Failure.Field != "export_path" {
		t.Errorf("Field = %q, want export_path", result.Failure.Field)
	}
}
