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

// Package validate implements 'dmops validate': checking a bundle
// directory without running it.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JasonW404-HW/DataMate-Ops/internal/bundle"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
)

// NewCommand creates the validate command.
func NewCommand() *cobra.Command {
	var paramsFile string

	cmd := &cobra.Command{
		Use:   "validate <bundle-dir>",
		Short: "Validate an operator bundle directory",
		Long: `Validate checks that a bundle directory is complete: a well-formed
metadata.yaml whose name matches the directory, and at least one entry
source. It does not construct or run the operator.

With --params-file, the given values are additionally validated against
the bundle's parameter schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := bundle.Check(args[0])
			if err != nil {
				if shared.GetJSON() {
					_ = output.EmitJSONError("validate", []output.JSONError{{
						Code:    "invalid_bundle",
						Message: err.Error(),
					}})
				}
				return shared.NewInvalidBundleError(fmt.Sprintf("bundle %s", args[0]), err)
			}

			if paramsFile != "" {
				if err := checkParams(result, paramsFile); err != nil {
					if shared.GetJSON() {
						_ = output.EmitJSONError("validate", []output.JSONError{{
							Code:    "invalid_params",
							Message: err.Error(),
						}})
					}
					return shared.NewInvalidBundleError("parameter validation failed", err)
				}
			}

			if shared.GetJSON() {
				return output.EmitJSON(struct {
					Dir     string   `json:"dir"`
					Name    string   `json:"name"`
					Version string   `json:"version"`
					Entries []string `json:"entry_sources"`
				}{result.Dir, result.Manifest.Name, result.Manifest.Version, result.EntrySources})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s %s is a valid bundle",
				result.Manifest.Name, result.Manifest.Version)))
			fmt.Fprintf(out, "  %s %d parameter(s), entry %s\n",
				shared.SymbolInfo, len(result.Manifest.Parameters), result.Manifest.Entry)
			for _, src := range result.EntrySources {
				fmt.Fprintf(out, "  %s %s\n", shared.SymbolInfo, src)
			}
			if paramsFile != "" {
				fmt.Fprintf(out, "  %s parameter values in %s satisfy the schema\n",
					shared.SymbolInfo, paramsFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsFile, "params-file", "", "YAML/JSON parameter values to check against the schema")

	return cmd
}

// checkParams runs the bundle's parameter schema over values from a file
// without constructing the operator.
func checkParams(result *bundle.CheckResult, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading params file: %w", err)
	}
	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing params file: %w", err)
	}
	_, err = result.Manifest.Schema().Validate(values)
	return err
}
