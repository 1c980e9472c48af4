// Package rowfilter keeps the records of a JSON array payload for which a
// boolean expression holds.
package rowfilter

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

//go:embed metadata.yaml
var manifestYAML []byte

func init() {
	registry.Register("rowfilter.New", New, manifestYAML)
}

// Error policies for records whose evaluation fails.
const (
	onErrorKeep = "keep"
	onErrorDrop = "drop"
	onErrorFail = "fail"
)

// Filter evaluates a compiled expression against each record. The
// compiled program is immutable, so instances are reusable and safe for
// concurrent execution.
type Filter struct {
	program *vm.Program
	onError string
}

// New compiles the expression once at construction. A malformed
// expression fails construction rather than every sample.
func New(params *metadata.Bindings) (operator.Mapper, error) {
	program, err := expr.Compile(params.String("expression"),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &metadata.ValidationError{
			Param:     "expression",
			Violation: metadata.ViolationConstraint,
			Detail:    fmt.Sprintf("expression does not compile: %v", err),
		}
	}

	return &Filter{
		program: program,
		onError: params.String("onError"),
	}, nil
}

// BatchSafe reports that one instance may serve a whole batch.
func (f *Filter) BatchSafe() bool { return true }

// ConcurrencySafe reports that instances tolerate concurrent Execute calls.
func (f *Filter) ConcurrencySafe() bool { return true }

// Execute filters the payload's records and returns the survivors as the
// artifact's text.
func (f *Filter) Execute(ctx context.Context, sample *operator.Sample) (*operator.Result, error) {
	records, failure := decodeRecords(sample)
	if failure != nil {
		return failure, nil
	}

	kept := make([]interface{}, 0, len(records))
	for i, rec := range records {
		keep, err := f.evaluate(rec)
		if err != nil {
			switch f.onError {
			case onErrorKeep:
				kept = append(kept, rec)
			case onErrorDrop:
				// dropped
			default:
				return operator.TransformFailed("expression", "record %d: %v", i, err), nil
			}
			continue
		}
		if keep {
			kept = append(kept, rec)
		}
	}

	payload, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding filtered records: %w", err)
	}

	artifact := sample.Clone()
	artifact.Text = string(payload)
	artifact.FileType = "json"
	return operator.NewArtifact(artifact), nil
}

// evaluate runs the expression against one record. Object records expose
// their fields directly; every record is also bound as "record".
func (f *Filter) evaluate(rec interface{}) (bool, error) {
	env := map[string]interface{}{"record": rec}
	if fields, ok := rec.(map[string]interface{}); ok {
		for k, v := range fields {
			if k != "record" {
				env[k] = v
			}
		}
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, err
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return keep, nil
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
