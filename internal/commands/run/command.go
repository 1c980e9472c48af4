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

// Package run implements 'dmops run': executing one operator against
// local samples through the debug harness.
package run

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/cli/prompt"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/harness"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

type options struct {
	params        []string
	paramsFile    string
	sample        string
	dataset       string
	sourceType    string
	targetType    string
	parallel      int
	watch         bool
	noInteractive bool
	noJournal     bool
	helpParams    bool
}

// NewCommand creates the run command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run <operator>",
		Short: "Run an operator against local samples",
		Long: `Run resolves an operator (builtin or bundle), validates its parameters,
and executes it against a single sample file or every matching file in a
dataset directory. Required parameters missing from the command line are
prompted for when the terminal is interactive.`,
		Example: `  dmops run rowfilter --sample records.json -p expression='age >= 18'
  dmops run pathopre --dataset ./patho-export --source-type csv
  dmops run jqtransform --dataset ./data --source-type '**/*.json' -p program='.[0]' --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperator(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Parameter value as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.paramsFile, "params-file", "", "YAML/JSON file with parameter values ('-' for stdin)")
	cmd.Flags().StringVar(&opts.sample, "sample", "", "Run against a single sample file")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "Run against every matching file under <dir>/source")
	cmd.Flags().StringVar(&opts.sourceType, "source-type", "csv", "Source extension or glob pattern for --dataset")
	cmd.Flags().StringVar(&opts.targetType, "target-type", "", "Requested output file type stamped on samples")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 1, "Max concurrent samples (concurrency-safe operators only)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rerun the batch when watched files change")
	cmd.Flags().BoolVar(&opts.noInteractive, "no-interactive", false, "Never prompt for missing parameters")
	cmd.Flags().BoolVar(&opts.noJournal, "no-journal", false, "Do not record this run in the journal")
	cmd.Flags().BoolVar(&opts.helpParams, "help-params", false, "Show the operator's parameters and exit")

	return cmd
}

func runOperator(cmd *cobra.Command, identifier string, opts *options) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return shared.NewExecutionError("loading configuration", err)
	}

	logger := shared.NewLogger()
	reg := shared.OpenRegistry(cfg)

	desc, err := reg.Resolve(identifier)
	if err != nil {
		return shared.NewInvalidBundleError(fmt.Sprintf("resolving operator %q", identifier), err)
	}

	if opts.helpParams {
		showParameters(desc.Manifest)
		return nil
	}

	values, err := parseParams(opts.params, opts.paramsFile)
	if err != nil {
		return shared.NewMissingInputError("parsing parameters", err)
	}

	// Fill missing required parameters, interactively when allowed.
	schema := desc.Manifest.Schema()
	if missing := prompt.MissingSpecs(schema, values); len(missing) > 0 {
		if !isInteractiveModeAllowed(opts.noInteractive) {
			return shared.NewMissingInputNonInteractiveError(
				prompt.FormatMissing(identifier, missing), nil)
		}
		prompter := prompt.NewSurveyPrompter(true)
		if err := prompt.Collect(cmd.Context(), prompter, missing, values); err != nil {
			return shared.NewMissingInputError("collecting parameters", err)
		}
	}

	h := harness.New(reg, logger)
	if !opts.noJournal {
		journal, err := shared.OpenJournal(cfg)
		if err != nil {
			return shared.NewExecutionError("opening run journal", err)
		}
		if journal != nil {
			defer journal.Close()
			h.SetJournal(journal)
		}
	}

	switch {
	case opts.sample != "" && opts.dataset != "":
		return shared.NewMissingInputError("--sample and --dataset are mutually exclusive", nil)
	case opts.sample != "":
		return runSingle(cmd, h, identifier, values, opts)
	case opts.dataset != "":
		return runDataset(cmd, h, desc, values, opts)
	default:
		return shared.NewMissingInputError("no input: pass --sample <file> or --dataset <dir>", nil)
	}
}

func runSingle(cmd *cobra.Command, h *harness.Harness, identifier string, values map[string]interface{}, opts *options) error {
	sample, err := harness.LoadSample(opts.sample, opts.targetType)
	if err != nil {
		return shared.NewMissingInputError("loading sample", err)
	}

	report, err := h.Do(cmd.Context(), harness.RunSpec{
		Identifier: identifier,
		Values:     values,
		Sample:     sample,
	})
	if err != nil && report == nil {
		return classifyHarnessError(identifier, err)
	}

	if shared.GetJSON() {
		if err := output.EmitJSON(report); err != nil {
			return err
		}
	} else {
		printReport(cmd, report)
	}

	if report.Err != nil {
		return shared.NewExecutionError("operator execution failed", report.Err)
	}
	if !report.Result.Ok() {
		return shared.NewExecutionError(report.Result.Failure.String(), nil)
	}
	return nil
}

func runDataset(cmd *cobra.Command, h *harness.Harness, desc *registry.Descriptor, values map[string]interface{}, opts *options) error {
	identifier := desc.ID

	collect := func() (*harness.BatchSpec, error) {
		samples, err := harness.CollectSamples(opts.dataset, opts.sourceType, opts.targetType)
		if err != nil {
			return nil, err
		}
		return &harness.BatchSpec{
			Identifier:  identifier,
			Values:      values,
			Samples:     samples,
			Parallelism: opts.parallel,
		}, nil
	}

	spec, err := collect()
	if err != nil {
		return shared.NewMissingInputError("collecting samples", err)
	}
	if len(spec.Samples) == 0 && !opts.watch {
		return shared.NewMissingInputError(
			fmt.Sprintf("no samples matching %q under %s/source", opts.sourceType, opts.dataset), nil)
	}

	if opts.watch {
		paths := []string{filepath.Join(opts.dataset, "source")}
		if desc.Source != registry.SourceBuiltin {
			// Bundle edits (metadata.yaml changes) rerun the batch too.
			paths = append(paths, filepath.Join(desc.Source, identifier))
		}
		watchSpec := harness.WatchSpec{
			Batch:          *spec,
			Paths:          paths,
			CollectSamples: collect,
		}
		err := h.Watch(cmd.Context(), watchSpec, func(batch *harness.BatchReport) {
			printBatch(cmd, batch)
		})
		if err != nil && !errors.Is(err, cmd.Context().Err()) {
			return classifyHarnessError(identifier, err)
		}
		return nil
	}

	batch, err := h.RunBatch(cmd.Context(), *spec)
	if err != nil {
		return classifyHarnessError(identifier, err)
	}

	if shared.GetJSON() {
		if err := output.EmitJSON(batch); err != nil {
			return err
		}
	} else {
		printBatch(cmd, batch)
	}

	if batch.Failures > 0 || batch.Fatals > 0 {
		return shared.NewExecutionError(
			fmt.Sprintf("%d of %d samples did not produce artifacts", batch.Failures+batch.Fatals, len(batch.Reports)), nil)
	}
	return nil
}

// classifyHarnessError maps harness errors to exit codes: resolution and
// manifest problems are bundle errors, parameter validation is a missing
// input, everything else is an execution failure.
func classifyHarnessError(identifier string, err error) error {
	var (
		notFound *registry.NotFoundError
		loadErr  *registry.LoadError
		parseErr *metadata.ParseError
		validErr *metadata.ValidationError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &loadErr), errors.As(err, &parseErr):
		return shared.NewInvalidBundleError(fmt.Sprintf("operator %q", identifier), err)
	case errors.As(err, &validErr):
		return shared.NewMissingInputError("parameter validation failed", err)
	default:
		return shared.NewExecutionError("operator execution failed", err)
	}
}

func printReport(cmd *cobra.Command, report *harness.Report) {
	out := cmd.OutOrStdout()

	switch {
	case report.Err != nil:
		fmt.Fprintln(out, shared.RenderError(fmt.Sprintf("%s fatal: %v", report.Operator, report.Err)))
	case !report.Result.Ok():
		fmt.Fprintln(out, shared.RenderError(fmt.Sprintf("%s failed: %s", report.Operator, report.Result.Failure)))
	default:
		fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s produced %s (%s)",
			report.Operator, report.Result.Artifact.FileName, report.Duration.Round(time.Millisecond))))
		if !shared.GetQuiet() && report.Result.Artifact.Text != "" {
			fmt.Fprintln(out, report.Result.Artifact.Text)
		}
	}
}

func printBatch(cmd *cobra.Command, batch *harness.BatchReport) {
	out := cmd.OutOrStdout()

	summary := fmt.Sprintf("%s: %d artifacts, %d failures, %d fatal (%s)",
		batch.Operator, batch.Artifacts, batch.Failures, batch.Fatals,
		batch.Duration.Round(time.Millisecond))
	if batch.Failures == 0 && batch.Fatals == 0 {
		fmt.Fprintln(out, shared.RenderOK(summary))
	} else {
		fmt.Fprintln(out, shared.RenderWarn(summary))
	}

	if shared.GetQuiet() {
		return
	}
	for _, report := range batch.Reports {
		switch {
		case report.Err != nil:
			fmt.Fprintf(out, "  %s %s: %v\n", shared.SymbolError, report.Sample, report.Err)
		case !report.Result.Ok():
			fmt.Fprintf(out, "  %s %s: %s\n", shared.SymbolError, report.Sample, report.Result.Failure)
		default:
			fmt.Fprintf(out, "  %s %s\n", shared.SymbolOK, report.Sample)
		}
	}
}

// showParameters prints the operator's parameter surface.
func showParameters(manifest *metadata.Manifest) {
	if len(manifest.Parameters) == 0 {
		fmt.Println("This operator has no parameters.")
		return
	}

	fmt.Printf("Parameters of %s:\n\n", manifest.Name)
	for _, spec := range manifest.Parameters {
		required := "optional"
		if spec.Required {
			required = "required"
		}
		fmt.Printf("  %s (%s, %s)\n", spec.Name, spec.Type, required)
		if spec.Description != "" {
			fmt.Printf("    %s\n", spec.Description)
		}
		if spec.HasDefault() {
			fmt.Printf("    Default: %v\n", spec.Default)
		}
		if spec.Constraint != nil {
			if len(spec.Constraint.Values) > 0 {
				fmt.Printf("    Valid values: %s\n", strings.Join(spec.Constraint.Values, ", "))
			}
			if spec.Constraint.Min != nil || spec.Constraint.Max != nil {
				fmt.Printf("    Range: %s\n", formatRange(spec.Constraint))
			}
		}
		fmt.Println()
	}
}

func formatRange(c *metadata.Constraint) string {
	switch {
	case c.Min != nil && c.Max != nil:
		return fmt.Sprintf("%v..%v", *c.Min, *c.Max)
	case c.Min != nil:
		return fmt.Sprintf(">= %v", *c.Min)
	default:
		return fmt.Sprintf("<= %v", *c.Max)
	}
}
