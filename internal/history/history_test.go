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

package history

import (
	"context"
	"testing"
	"time"
)

func TestStore_AppendAndGet(t *testing.T) {
	store, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	rec := &Record{
		ID:       "run-123",
		Operator: "patho-preprocess",
		Source:   "builtin",
		Sample:   "slide_0001.csv",
		Status:   StatusArtifact,
		Params: map[string]interface{}{
			"pathTransformer": "/mnt/ruipath/hospital_data/",
			"ignoreSdpc":      false,
		},
		DurationMs: 42,
		StartedAt:  time.Now(),
	}

	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("failed to append run: %v", err)
	}

	retrieved, err := store.Get(ctx, "run-123")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}

	if retrieved.Operator != rec.Operator {
		t.Errorf("expected operator %s, got %s", rec.Operator, retrieved.Operator)
	}
	if retrieved.Sample != rec.Sample {
		t.Errorf("expected sample %s, got %s", rec.Sample, retrieved.Sample)
	}
	if retrieved.Status != StatusArtifact {
		t.Errorf("expected status %s, got %s", StatusArtifact, retrieved.Status)
	}
	if retrieved.DurationMs != 42 {
		t.Errorf("expected duration 42, got %d", retrieved.DurationMs)
	}
	if retrieved.Params["pathTransformer"] != "/mnt/ruipath/hospital_data/" {
		t.Errorf("expected pathTransformer binding, got %v", retrieved.Params)
	}
	if got := retrieved.Params["ignoreSdpc"]; got != false {
		t.Errorf("expected ignoreSdpc false, got %v", got)
	}
}

func TestStore_AppendValidation(t *testing.T) {
	store, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	tests := []struct {
		name string
		rec  *Record
	}{
		{name: "nil record", rec: nil},
		{name: "missing id", rec: &Record{Operator: "row-filter"}},
		{name: "missing operator", rec: &Record{ID: "run-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Append(ctx, tt.rec); err == nil {
				t.Errorf("expected append to fail")
			}
		})
	}
}

func TestStore_ListFilters(t *testing.T) {
	store, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	runs := []*Record{
		{ID: "run-1", Operator: "row-filter", Source: "builtin", Status: StatusArtifact, StartedAt: base},
		{ID: "run-2", Operator: "row-filter", Source: "builtin", Status: StatusFailure, FailureKind: "bad_input", Message: "missing diagnosis column", StartedAt: base.Add(time.Minute)},
		{ID: "run-3", Operator: "patho-preprocess", Source: "builtin", Status: StatusArtifact, StartedAt: base.Add(2 * time.Minute)},
		{ID: "run-4", Operator: "patho-preprocess", Source: "builtin", Status: StatusFatal, Message: "context deadline exceeded", StartedAt: base.Add(3 * time.Minute)},
	}
	for _, rec := range runs {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("failed to append %s: %v", rec.ID, err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		records, err := store.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected 4 runs, got %d", len(records))
		}
		if records[0].ID != "run-4" || records[3].ID != "run-1" {
			t.Errorf("expected newest-first order, got %s..%s", records[0].ID, records[3].ID)
		}
	})

	t.Run("by operator", func(t *testing.T) {
		records, err := store.List(ctx, Filter{Operator: "row-filter"})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(records))
		}
	})

	t.Run("by status", func(t *testing.T) {
		records, err := store.List(ctx, Filter{Status: StatusFailure})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 run, got %d", len(records))
		}
		if records[0].FailureKind != "bad_input" {
			t.Errorf("expected failure kind bad_input, got %s", records[0].FailureKind)
		}
	})

	t.Run("since", func(t *testing.T) {
		since := base.Add(90 * time.Second)
		records, err := store.List(ctx, Filter{Since: &since})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(records))
		}
	})

	t.Run("limit", func(t *testing.T) {
		records, err := store.List(ctx, Filter{Limit: 1})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 run, got %d", len(records))
		}
		if records[0].ID != "run-4" {
			t.Errorf("expected newest run, got %s", records[0].ID)
		}
	})
}

func TestStore_Prune(t *testing.T) {
	store, err := Open(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	old := &Record{ID: "run-old", Operator: "row-filter", Source: "builtin", Status: StatusArtifact, StartedAt: now.Add(-48 * time.Hour)}
	fresh := &Record{ID: "run-new", Operator: "row-filter", Source: "builtin", Status: StatusArtifact, StartedAt: now}

	for _, rec := range []*Record{old, fresh} {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("failed to append %s: %v", rec.ID, err)
		}
	}

	deleted, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted run, got %d", deleted)
	}

	if _, err := store.Get(ctx, "run-old"); err == nil {
		t.Errorf("expected pruned run to be gone")
	}
	if _, err := store.Get(ctx, "run-new"); err != nil {
		t.Errorf("expected fresh run to survive: %v", err)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Errorf("expected open without path to fail")
	}
}
