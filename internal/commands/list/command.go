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

// Package list implements 'dmops list': enumerating resolvable operators.
package list

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
)

// NewCommand creates the list command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resolvable operators",
		Long:  `List shows every operator dmops can resolve: builtins linked into the binary and bundles found under the configured bundle roots.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return shared.NewExecutionError("loading configuration", err)
			}

			descriptors := shared.OpenRegistry(cfg).List()

			if shared.GetJSON() {
				type entry struct {
					Name        string `json:"name"`
					Version     string `json:"version"`
					Source      string `json:"source"`
					Description string `json:"description,omitempty"`
				}
				entries := make([]entry, 0, len(descriptors))
				for _, desc := range descriptors {
					entries = append(entries, entry{
						Name:        desc.ID,
						Version:     desc.Manifest.Version,
						Source:      desc.Source,
						Description: desc.Manifest.Description,
					})
				}
				return output.EmitJSON(entries)
			}

			if len(descriptors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No operators found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tSOURCE\tDESCRIPTION")
			for _, desc := range descriptors {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					desc.ID, desc.Manifest.Version, desc.Source, oneLine(desc.Manifest.Description))
			}
			return w.Flush()
		},
	}
}

// oneLine truncates a description to its first line for the table.
func oneLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
