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

// Package harness drives one operator end-to-end outside the platform.
//
// The core operation is Run: resolve the operator, validate the caller's
// parameter values against its schema, construct an instance, execute it
// on one sample, and release the instance. Resolution and validation
// errors surface before any operator state exists; execution failures
// come back inside the Result; only unanticipated faults become errors.
// Do wraps Run with run IDs, timing, logging, and journal recording for
// the CLI. RunBatch drives one operator over a collected sample set.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JasonW404-HW/DataMate-Ops/internal/history"
	"github.com/JasonW404-HW/DataMate-Ops/internal/log"
	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

// FatalError is an unanticipated internal fault from an operator: a
// non-nil error from Execute or a recovered panic. It is propagated, never
// swallowed, and never folded into a Result.
type FatalError struct {
	// Operator is the identifier of the operator that faulted.
	Operator string

	// Cause is the underlying fault.
	Cause error

	// Panicked is true when the fault was a recovered panic.
	Panicked bool
}

func (e *FatalError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("operator %q panicked: %v", e.Operator, e.Cause)
	}
	return fmt.Sprintf("operator %q: fatal execution error: %v", e.Operator, e.Cause)
}

// Unwrap returns the underlying fault for errors.Is/As.
func (e *FatalError) Unwrap() error {
	return e.Cause
}

// Harness runs operators locally. It is single-shot per call: one operator,
// one parameter set, one sample (or one batch of samples).
type Harness struct {
	registry *registry.Registry
	logger   *slog.Logger

	// journal is optional; nil disables run recording.
	journal *history.Store
}

// New creates a harness over the given registry.
func New(reg *registry.Registry, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = log.New(log.FromEnv())
	}
	return &Harness{
		registry: reg,
		logger:   log.WithComponent(logger, "harness"),
	}
}

// SetJournal enables run recording to the given store.
func (h *Harness) SetJournal(store *history.Store) {
	h.journal = store
}

// Run resolves an operator, validates values against its schema,
// constructs an instance, executes it on the sample, and releases the
// instance. Errors pass through untouched: *registry.NotFoundError and
// *registry.LoadError from resolution, *metadata.ValidationError from
// binding, *FatalError from execution. The Result is returned unmodified,
// including failures.
func (h *Harness) Run(ctx context.Context, identifier string, values map[string]interface{}, sample *operator.Sample) (*operator.Result, error) {
	desc, err := h.registry.Resolve(identifier)
	if err != nil {
		return nil, err
	}

	bindings, err := desc.Manifest.Schema().Validate(values)
	if err != nil {
		return nil, err
	}

	inst, err := desc.Factory(bindings)
	if err != nil {
		return nil, err
	}

	result, execErr := h.execute(ctx, desc.ID, inst, sample)
	h.release(desc.ID, inst)

	return result, execErr
}

// execute invokes one Execute call with panic containment. A panic must
// not take the harness down, but it is never silently swallowed either:
// it comes back as a *FatalError.
func (h *Harness) execute(ctx context.Context, id string, inst operator.Mapper, sample *operator.Sample) (result *operator.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			result = nil
			err = &FatalError{Operator: id, Cause: cause, Panicked: true}
		}
	}()

	result, execErr := inst.Execute(ctx, sample)
	if execErr != nil {
		return nil, &FatalError{Operator: id, Cause: execErr}
	}
	if result == nil {
		return nil, &FatalError{Operator: id, Cause: fmt.Errorf("Execute returned neither result nor error")}
	}

	return result, nil
}

// release closes the instance if it holds resources. Close failures are
// logged rather than masking the execution outcome.
func (h *Harness) release(id string, inst operator.Mapper) {
	if err := operator.Close(inst); err != nil {
		h.logger.Warn("operator close failed",
			log.String(log.OperatorKey, id),
			log.Error(err),
		)
	}
}

// RunSpec describes one Do invocation.
type RunSpec struct {
	// Identifier names the operator to run.
	Identifier string

	// Values are the raw parameter bindings.
	Values map[string]interface{}

	// Sample is the input record.
	Sample *operator.Sample
}

// Report is the observable outcome of one run, for the CLI and journal.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// Operator is the resolved operator identifier.
	Operator string `json:"operator"`

	// Version is the operator bundle version.
	Version string `json:"version"`

	// Source records where the operator was resolved from.
	Source string `json:"source"`

	// Sample is the input's file name, for display.
	Sample string `json:"sample,omitempty"`

	// Result is the execution outcome; nil when the run ended fatally.
	Result *operator.Result `json:"result,omitempty"`

	// Err is the fatal error, if any.
	Err error `json:"-"`

	// Error mirrors Err as a string for JSON output.
	Error string `json:"error,omitempty"`

	// Duration is the wall-clock Execute time.
	Duration time.Duration `json:"duration_ms"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
}

// Outcome classifies the report for display and journal status.
func (r *Report) Outcome() string {
	switch {
	case r.Err != nil:
		return history.StatusFatal
	case r.Result != nil && !r.Result.Ok():
		return history.StatusFailure
	default:
		return history.StatusArtifact
	}
}

// Do is Run plus observability: it assigns a run ID, times the execution,
// logs the outcome, and records it in the journal when one is configured.
// Resolution and validation errors are returned before any report exists;
// fatal execution errors are returned alongside the report that records
// them.
func (h *Harness) Do(ctx context.Context, spec RunSpec) (*Report, error) {
	desc, err := h.registry.Resolve(spec.Identifier)
	if err != nil {
		return nil, err
	}

	bindings, err := desc.Manifest.Schema().Validate(spec.Values)
	if err != nil {
		return nil, err
	}

	inst, err := desc.Factory(bindings)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Operator:  desc.ID,
		Version:   desc.Manifest.Version,
		Source:    desc.Source,
		StartedAt: time.Now(),
	}
	if spec.Sample != nil {
		report.Sample = spec.Sample.FileName
	}

	logger := log.WithRunContext(h.logger, report.RunID, report.Operator)
	if report.Sample != "" {
		logger = log.WithSample(logger, report.Sample)
	}
	logger.Info("run started", log.String("version", report.Version))

	result, execErr := h.execute(ctx, desc.ID, inst, spec.Sample)
	h.release(desc.ID, inst)

	report.Duration = time.Since(report.StartedAt)
	report.Result = result
	report.Err = execErr
	if execErr != nil {
		report.Error = execErr.Error()
	}

	h.observe(ctx, logger, report, bindings.Map())

	return report, execErr
}

// observe logs the report and appends it to the journal.
func (h *Harness) observe(ctx context.Context, logger *slog.Logger, report *Report, params map[string]interface{}) {
	switch report.Outcome() {
	case history.StatusFatal:
		logger.Error("run ended fatally",
			log.Error(report.Err),
			log.Duration("duration", report.Duration.Milliseconds()),
		)
	case history.StatusFailure:
		logger.Warn("run reported failure",
			log.String("kind", string(report.Result.Failure.Kind)),
			log.String("message", report.Result.Failure.Message),
			log.Duration("duration", report.Duration.Milliseconds()),
		)
	default:
		logger.Info("run produced artifact",
			log.Duration("duration", report.Duration.Milliseconds()),
		)
		if logger.Enabled(ctx, log.LevelTrace) && report.Result != nil {
			log.Trace(logger, "artifact dump", log.String("artifact", spew.Sdump(report.Result.Artifact)))
		}
	}

	if h.journal == nil {
		return
	}

	rec := &history.Record{
		ID:         report.RunID,
		Operator:   report.Operator,
		Source:     report.Source,
		Sample:     report.Sample,
		Status:     report.Outcome(),
		Params:     params,
		DurationMs: report.Duration.Milliseconds(),
		StartedAt:  report.StartedAt,
	}
	switch {
	case report.Err != nil:
		rec.Message = report.Err.Error()
	case report.Result != nil && report.Result.Failure != nil:
		rec.FailureKind = string(report.Result.Failure.Kind)
		rec.Message = report.Result.Failure.Message
	}

	if err := h.journal.Append(ctx, rec); err != nil {
		h.logger.Warn("journal append failed", log.Error(err))
	}
}

// BatchSpec describes one RunBatch invocation.
type BatchSpec struct {
	// Identifier names the operator to run.
	Identifier string

	// Values are the raw parameter bindings, validated once for the batch.
	Values map[string]interface{}

	// Samples are the inputs, processed in order (unless parallel).
	Samples []*operator.Sample

	// Parallelism bounds concurrent executions. Values below 2, or an
	// operator that does not declare itself concurrency-safe, mean
	// sequential processing.
	Parallelism int
}

// BatchReport aggregates the per-sample reports of one batch.
type BatchReport struct {
	// BatchID identifies the batch.
	BatchID string `json:"batch_id"`

	// Operator is the resolved operator identifier.
	Operator string `json:"operator"`

	// Reports holds one entry per sample, in sample order.
	Reports []*Report `json:"reports"`

	// Artifacts, Failures, and Fatals count report outcomes.
	Artifacts int `json:"artifacts"`
	Failures  int `json:"failures"`
	Fatals    int `json:"fatals"`

	// Duration is the wall-clock time of the whole batch.
	Duration time.Duration `json:"duration_ms"`
}

// RunBatch drives one operator over every sample, the batch counterpart
// of Do. Bindings are validated once. The operator instance is reused
// across samples iff it declares itself batch-safe; otherwise each sample
// gets a fresh instance. Samples run concurrently only when Parallelism
// is at least 2 and the operator declares itself concurrency-safe. A
// fatal error on one sample is recorded in its report and does not stop
// the rest of the batch.
func (h *Harness) RunBatch(ctx context.Context, spec BatchSpec) (*BatchReport, error) {
	desc, err := h.registry.Resolve(spec.Identifier)
	if err != nil {
		return nil, err
	}

	bindings, err := desc.Manifest.Schema().Validate(spec.Values)
	if err != nil {
		return nil, err
	}

	// The first instance doubles as the capability probe.
	first, err := desc.Factory(bindings)
	if err != nil {
		return nil, err
	}
	batchSafe := operator.IsBatchSafe(first)
	parallel := spec.Parallelism > 1 && operator.IsConcurrencySafe(first)

	batch := &BatchReport{
		BatchID:  uuid.NewString(),
		Operator: desc.ID,
		Reports:  make([]*Report, len(spec.Samples)),
	}
	started := time.Now()

	logger := log.WithRunContext(h.logger, batch.BatchID, desc.ID)
	logger.Info("batch started",
		log.Int("samples", len(spec.Samples)),
		log.Bool("parallel", parallel),
		log.Bool("reuse_instance", batchSafe),
	)

	params := bindings.Map()

	if parallel {
		err = h.runParallel(ctx, desc, bindings, first, batchSafe, spec, batch, params)
	} else {
		err = h.runSequential(ctx, desc, bindings, first, batchSafe, spec, batch, params)
	}
	if err != nil {
		return nil, err
	}

	for _, report := range batch.Reports {
		switch report.Outcome() {
		case history.StatusFatal:
			batch.Fatals++
		case history.StatusFailure:
			batch.Failures++
		default:
			batch.Artifacts++
		}
	}

	batch.Duration = time.Since(started)
	logger.Info("batch finished",
		log.Int("artifacts", batch.Artifacts),
		log.Int("failures", batch.Failures),
		log.Int("fatals", batch.Fatals),
		log.Duration("duration", batch.Duration.Milliseconds()),
	)

	return batch, nil
}

// runSequential processes samples in order. A batch-safe instance is
// constructed exactly once; otherwise each sample gets its own, with the
// probe instance serving the first sample.
func (h *Harness) runSequential(ctx context.Context, desc *registry.Descriptor, bindings *metadata.Bindings, first operator.Mapper, batchSafe bool, spec BatchSpec, batch *BatchReport, params map[string]interface{}) error {
	inst := first

	for i, sample := range spec.Samples {
		if err := ctx.Err(); err != nil {
			if inst != nil {
				h.release(desc.ID, inst)
			}
			return err
		}

		if inst == nil {
			fresh, err := desc.Factory(bindings)
			if err != nil {
				return err
			}
			inst = fresh
		}

		batch.Reports[i] = h.runOne(ctx, desc, inst, sample, params)

		if !batchSafe {
			h.release(desc.ID, inst)
			inst = nil
		}
	}

	if inst != nil {
		h.release(desc.ID, inst)
	}

	return nil
}

// runParallel processes samples concurrently with a bounded errgroup.
// Instances are shared only when the operator is also batch-safe.
func (h *Harness) runParallel(ctx context.Context, desc *registry.Descriptor, bindings *metadata.Bindings, first operator.Mapper, batchSafe bool, spec BatchSpec, batch *BatchReport, params map[string]interface{}) error {
	var shared operator.Mapper
	if batchSafe {
		shared = first
	} else {
		// The probe cannot be shared; it served only to read capabilities.
		h.release(desc.ID, first)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spec.Parallelism)

	var mu sync.Mutex

	for i, sample := range spec.Samples {
		g.Go(func() error {
			inst := shared
			if inst == nil {
				fresh, err := desc.Factory(bindings)
				if err != nil {
					return err
				}
				inst = fresh
				defer h.release(desc.ID, fresh)
			}

			report := h.runOne(gctx, desc, inst, sample, params)

			mu.Lock()
			batch.Reports[i] = report
			mu.Unlock()

			return nil
		})
	}

	err := g.Wait()
	if shared != nil {
		h.release(desc.ID, shared)
	}

	return err
}

// runOne executes a single sample and builds its report. Fatal errors are
// captured in the report; batch processing continues.
func (h *Harness) runOne(ctx context.Context, desc *registry.Descriptor, inst operator.Mapper, sample *operator.Sample, params map[string]interface{}) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Operator:  desc.ID,
		Version:   desc.Manifest.Version,
		Source:    desc.Source,
		StartedAt: time.Now(),
	}
	if sample != nil {
		report.Sample = sample.FileName
	}

	logger := log.WithRunContext(h.logger, report.RunID, report.Operator)
	if report.Sample != "" {
		logger = log.WithSample(logger, report.Sample)
	}

	result, execErr := h.execute(ctx, desc.ID, inst, sample)

	report.Duration = time.Since(report.StartedAt)
	report.Result = result
	report.Err = execErr
	if execErr != nil {
		report.Error = execErr.Error()
	}

	h.observe(ctx, logger, report, params)

	return report
}
