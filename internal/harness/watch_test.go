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

package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

func TestWatch_RunsOnceThenOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetProbe()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newTestHarness()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reports := make(chan *BatchReport, 4)
	done := make(chan error, 1)
	go func() {
		done <- h.Watch(ctx, WatchSpec{
			Batch: BatchSpec{
				Identifier: "probe",
				Values:     map[string]interface{}{},
				Samples:    []*operator.Sample{testSample("a.csv")},
			},
			Paths:    []string{dir},
			Debounce: 20 * time.Millisecond,
		}, func(r *BatchReport) { reports <- r })
	}()

	select {
	case r := <-reports:
		if r.Artifacts != 1 {
			t.Errorf("initial batch: expected 1 artifact, got %d", r.Artifacts)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the initial batch")
	}

	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-reports:
		if r.Artifacts != 1 {
			t.Errorf("rerun batch: expected 1 artifact, got %d", r.Artifacts)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the rerun")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWatch_RecollectsSamples(t *testing.T) {
	defer goleak.VerifyNone(t)
	resetProbe()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newTestHarness()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collect := func() (*BatchSpec, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var samples []*operator.Sample
		for _, entry := range entries {
			samples = append(samples, testSample(entry.Name()))
		}
		return &BatchSpec{
			Identifier: "probe",
			Values:     map[string]interface{}{},
			Samples:    samples,
		}, nil
	}

	initial, err := collect()
	if err != nil {
		t.Fatal(err)
	}

	reports := make(chan *BatchReport, 4)
	done := make(chan error, 1)
	go func() {
		done <- h.Watch(ctx, WatchSpec{
			Batch:          *initial,
			Paths:          []string{dir},
			Debounce:       20 * time.Millisecond,
			CollectSamples: collect,
		}, func(r *BatchReport) { reports <- r })
	}()

	select {
	case r := <-reports:
		if len(r.Reports) != 1 {
			t.Errorf("initial batch: expected 1 sample, got %d", len(r.Reports))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the initial batch")
	}

	if err := os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-reports:
		if len(r.Reports) != 2 {
			t.Errorf("rerun: expected the new file to be picked up, got %d samples", len(r.Reports))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the rerun")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWatch_NoPaths(t *testing.T) {
	h := newTestHarness()
	err := h.Watch(context.Background(), WatchSpec{
		Batch: BatchSpec{Identifier: "probe"},
	}, nil)
	if err == nil {
		t.Fatal("expected an error for a watch without paths")
	}
}

func TestWatch_ResolutionErrorEndsSession(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newTestHarness()
	err := h.Watch(context.Background(), WatchSpec{
		Batch: BatchSpec{
			Identifier: "no-such-operator",
			Samples:    []*operator.Sample{testSample("a.csv")},
		},
		Paths: []string{t.TempDir()},
	}, nil)
	if err == nil {
		t.Fatal("expected the unresolvable identifier to end the session")
	}
}
