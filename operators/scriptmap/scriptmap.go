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

// Package scriptmap maps JSON records through a user-supplied JavaScript
// transform(record) function running on an embedded engine. The engine is
// sandboxed: scripts have no filesystem or network access.
package scriptmap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dop251/goja"

	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

//go:embed metadata.yaml
var manifestYAML []byte

func init() {
	registry.Register("scriptmap.New", New, manifestYAML)
}

// Error policies for records whose transform throws.
const (
	onErrorFail = "fail"
	onErrorSkip = "skip"
)

// Map owns a JavaScript runtime and a transform function resolved from
// the user's script. Runtimes are not goroutine-safe and accumulate
// script state, so Map declares neither reuse capability: the harness
// constructs a fresh instance per sample.
type Map struct {
	runtime   *goja.Runtime
	transform goja.Callable
	onError   string
}

// New compiles the script and resolves its transform function. Script
// problems fail construction rather than every sample.
func New(params *metadata.Bindings) (operator.Mapper, error) {
	runtime := goja.New()

	if _, err := runtime.RunString(params.String("script")); err != nil {
		return nil, &metadata.ValidationError{
			Param:     "script",
			Violation: metadata.ViolationConstraint,
			Detail:    fmt.Sprintf("script does not run: %v", err),
		}
	}

	value := runtime.Get("transform")
	if value == nil || goja.IsUndefined(value) {
		return nil, &metadata.ValidationError{
			Param:     "script",
			Violation: metadata.ViolationConstraint,
			Detail:    "script defines no transform function",
		}
	}
	transform, ok := goja.AssertFunction(value)
	if !ok {
		return nil, &metadata.ValidationError{
			Param:     "script",
			Violation: metadata.ViolationConstraint,
			Detail:    "transform is not a function",
		}
	}

	return &Map{
		runtime:   runtime,
		transform: transform,
		onError:   params.String("onError"),
	}, nil
}

// Execute maps each record of the payload through transform(record) and
// emits the transformed records as the artifact's text. A record whose
// transform returns null or undefined is dropped.
func (m *Map) Execute(ctx context.Context, sample *operator.Sample) (*operator.Result, error) {
	records, failure := decodeRecords(sample)
	if failure != nil {
		return failure, nil
	}

	mapped := make([]interface{}, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := m.transform(goja.Undefined(), m.runtime.ToValue(rec))
		if err != nil {
			if m.onError == onErrorSkip {
				continue
			}
			return operator.TransformFailed("script", "record %d: %v", i, jsErrorMessage(err)), nil
		}
		if out == nil || goja.IsUndefined(out) || goja.IsNull(out) {
			continue
		}
		mapped = append(mapped, out.Export())
	}

	payload, err := json.MarshalIndent(mapped, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding transformed records: %w", err)
	}

	artifact := sample.Clone()
	artifact.Text = string(payload)
	artifact.FileType = "json"
	return operator.NewArtifact(artifact), nil
}

// jsErrorMessage prefers the thrown JavaScript value over the Go wrapper.
func jsErrorMessage(err error) string {
	if exc, ok := err.(*goja.Exception); ok && exc.Value() != nil {
		return exc.Value().String()
	}
	return err.Error()
}

// decodeRecords parses the sample's JSON array payload: the text payload
// when present, otherwise the contents of the source file.
func decodeRecords(sample *operator.Sample) ([]interface{}, *operator.Result) {
	payload := []byte(sample.Text)
	if len(payload) == 0 {
		if sample.FilePath == "" {
			return nil, operator.BadInput("text", "sample carries neither a text payload nor a source file path")
		}
		data, err := os.ReadFile(sample.FilePath)
		if err != nil {
			return nil, operator.BadInput("filePath", "reading payload: %v", err)
		}
		payload = data
	}

	var records []interface{}
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, operator.BadInput("text", "payload is not a JSON array: %v", err)
	}
	return records, nil
}
