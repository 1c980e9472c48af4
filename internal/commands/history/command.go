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

// Package history implements the 'dmops history' command group for the
// run journal.
package history

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/history"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
)

// NewCommand creates the history command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded operator runs",
		Long: `Inspect the run journal.

Every harness run is recorded with its status, parameters, and timing
unless journaling is disabled in the configuration.`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newPruneCommand())

	return cmd
}

// openJournal opens the configured journal store or fails when journaling
// is disabled.
func openJournal() (*history.Store, error) {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := shared.OpenJournal(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("journaling is disabled in the configuration")
	}
	return store, nil
}

func newListCommand() *cobra.Command {
	var (
		operatorName string
		status       string
		since        time.Duration
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			filter := history.Filter{
				Operator: operatorName,
				Status:   status,
				Limit:    limit,
			}
			if since > 0 {
				cutoff := time.Now().Add(-since)
				filter.Since = &cutoff
			}

			records, err := store.List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if shared.GetJSON() {
				return output.EmitJSON(records)
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tOPERATOR\tSTATUS\tSAMPLE\tDURATION\tSTARTED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
					rec.ID,
					rec.Operator,
					renderStatus(rec.Status),
					rec.Sample,
					rec.DurationMs,
					rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&operatorName, "operator", "", "Only show runs of this operator")
	cmd.Flags().StringVar(&status, "status", "", "Only show runs with this status (artifact, failure, fatal)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show runs started within this duration (e.g. 24h)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	return cmd
}

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return shared.NewMissingInputError(fmt.Sprintf("run %s not found", args[0]), err)
			}

			if shared.GetJSON() {
				return output.EmitJSON(rec)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Run:"), rec.ID)
			fmt.Fprintf(out, "%s %s (%s)\n", shared.RenderLabel("Operator:"), rec.Operator, rec.Source)
			fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Status:"), renderStatus(rec.Status))
			if rec.Sample != "" {
				fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Sample:"), rec.Sample)
			}
			if rec.FailureKind != "" {
				fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Failure kind:"), rec.FailureKind)
			}
			if rec.Message != "" {
				fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Message:"), rec.Message)
			}
			fmt.Fprintf(out, "%s %dms\n", shared.RenderLabel("Duration:"), rec.DurationMs)
			fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("Started:"), rec.StartedAt.Local().Format(time.RFC3339))
			if len(rec.Params) > 0 {
				params, err := json.MarshalIndent(rec.Params, "", "  ")
				if err != nil {
					return fmt.Errorf("rendering params: %w", err)
				}
				fmt.Fprintf(out, "%s\n%s\n", shared.RenderLabel("Params:"), params)
			}
			return nil
		},
	}

	return cmd
}

func newPruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			before := time.Now().Add(-olderThan)
			deleted, err := store.Prune(cmd.Context(), before)
			if err != nil {
				return fmt.Errorf("pruning journal: %w", err)
			}

			if shared.GetJSON() {
				return output.EmitJSON(struct {
					Deleted int64 `json:"deleted"`
				}{Deleted: deleted})
			}

			fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Deleted %d record(s)", deleted)))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete entries started before now minus this duration")

	return cmd
}

func renderStatus(status string) string {
	switch status {
	case history.StatusArtifact:
		return shared.StatusOK.Render(status)
	case history.StatusFailure:
		return shared.StatusWarn.Render(status)
	case history.StatusFatal:
		return shared.StatusError.Render(status)
	default:
		return status
	}
}
