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

// Package show implements 'dmops show': printing an operator's metadata.
package show

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// NewCommand creates the show command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <operator>",
		Short: "Show an operator's metadata and parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return shared.NewExecutionError("loading configuration", err)
			}

			desc, err := shared.OpenRegistry(cfg).Resolve(args[0])
			if err != nil {
				return shared.NewInvalidBundleError(fmt.Sprintf("resolving operator %q", args[0]), err)
			}

			if shared.GetJSON() {
				return output.EmitJSON(struct {
					*metadata.Manifest
					Source string `json:"source"`
				}{desc.Manifest, desc.Source})
			}

			out := cmd.OutOrStdout()
			m := desc.Manifest

			fmt.Fprintln(out, shared.Bold.Render(m.Name)+" "+shared.Muted.Render(m.Version))
			fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("source:"), desc.Source)
			fmt.Fprintf(out, "%s %s\n", shared.RenderLabel("entry:"), m.Entry)
			if m.Description != "" {
				fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(m.Description))
			}

			if len(m.Parameters) == 0 {
				fmt.Fprintln(out, "\nNo parameters.")
				return nil
			}

			fmt.Fprintln(out, "\nParameters:")
			for _, spec := range m.Parameters {
				required := "optional"
				if spec.Required {
					required = "required"
				}
				fmt.Fprintf(out, "  %s (%s, %s)\n", shared.Bold.Render(spec.Name), spec.Type, required)
				if spec.Description != "" {
					fmt.Fprintf(out, "    %s\n", spec.Description)
				}
				if spec.HasDefault() {
					fmt.Fprintf(out, "    Default: %v\n", spec.Default)
				}
				if c := spec.Constraint; c != nil {
					if len(c.Values) > 0 {
						fmt.Fprintf(out, "    Valid values: %s\n", strings.Join(c.Values, ", "))
					}
					if c.Min != nil || c.Max != nil {
						fmt.Fprintf(out, "    Range: %s\n", formatRange(c))
					}
					if c.Pattern != "" {
						fmt.Fprintf(out, "    Pattern: %s\n", c.Pattern)
					}
				}
			}
			if m.Passthrough {
				fmt.Fprintln(out, "\nUndeclared parameters are passed through to the operator.")
			}
			return nil
		},
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
