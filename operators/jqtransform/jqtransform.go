// Package jqtransform applies a jq program to the sample's JSON payload.
package jqtransform

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/itchyny/gojq"

	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

//go:embed metadata.yaml
var manifestYAML []byte

func init() {
	registry.Register("jqtransform.New", New, manifestYAML)
}

// Transform runs a compiled jq program against each sample's payload.
// Compiled programs are immutable, so instances are reusable and safe
// for concurrent execution.
type Transform struct {
	code    *gojq.Code
	timeout time.Duration
}

// New parses and compiles the program once at construction. A malformed
// program fails construction rather than every sample.
func New(params *metadata.Bindings) (operator.Mapper, error) {
	query, err := gojq.Parse(params.String("program"))
	if err != nil {
		return nil, &metadata.ValidationError{
			Param:     "program",
			Violation: metadata.ViolationConstraint,
			Detail:    fmt.Sprintf("program does not parse: %v", err),
		}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &metadata.ValidationError{
			Param:     "program",
			Violation: metadata.ViolationConstraint,
			Detail:    fmt.Sprintf("program does not compile: %v", err),
		}
	}

	return &Transform{
		code:    code,
		timeout: time.Duration(params.Int("timeoutMs")) * time.Millisecond,
	}, nil
}

// BatchSafe reports that one instance may serve a whole batch.
func (t *Transform) BatchSafe() bool { return true }

// ConcurrencySafe reports that instances tolerate concurrent Execute calls.
func (t *Transform) ConcurrencySafe() bool { return true }

// Execute parses the payload, runs the program under the configured
// timeout, and emits the program's output as the artifact's text.
func (t *Transform) Execute(ctx context.Context, sample *operator.Sample) (*operator.Result, error) {
	data, failure := decodePayload(sample)
	if failure != nil {
		return failure, nil
	}

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resultChan := make(chan interface{}, 1)
	errorChan := make(chan error, 1)

	go func() {
		iter := t.code.RunWithContext(execCtx, data)

		var results []interface{}
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				errorChan <- err
				return
			}
			results = append(results, v)
		}

		// A single output becomes the artifact directly; multiple
		// outputs become an array.
		switch len(results) {
		case 0:
			resultChan <- nil
		case 1:
			resultChan <- results[0]
		default:
			resultChan <- results
		}
	}()

	var output interface{}
	select {
	case output = <-resultChan:
	case err := <-errorChan:
		// RunWithContext surfaces a blown budget as an iterator error.
		if execCtx.Err() != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return operator.TransformFailed("program", "evaluation timed out after %v", t.timeout), nil
		}
		return operator.TransformFailed("program", "%v", err), nil
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return operator.TransformFailed("program", "evaluation timed out after %v", t.timeout), nil
	}

	payload, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding program output: %w", err)
	}

	artifact := sample.Clone()
	artifact.Text = string(payload)
	artifact.FileType = "json"
	return operator.NewArtifact(artifact), nil
}

// decodePayload parses the sample's JSON payload: the text payload when
// present, otherwise the contents of the source file.
func decodePayload(sample *operator.Sample) (interface{}, *operator.Result) {
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

	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, operator.BadInput("text", "payload is not valid JSON: %v", err)
	}
	return data, nil
}
