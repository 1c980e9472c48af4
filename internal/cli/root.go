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

// Package cli assembles the dmops command tree.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for dmops
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmops",
		Short: "DataMate-Ops - operator authoring and local debugging",
		Long: `dmops is a command-line tool for authoring DataMate operators and
debugging them locally before pushing to the platform. Operators are
bundles of a metadata artifact plus an entry source; dmops validates
their parameters, runs them against local samples, and packages them
for upload.

Run 'dmops new my-operator' to scaffold a bundle.
Run 'dmops run <operator> --sample file.csv' to execute one locally.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	// Accept snake_case flag spellings (e.g. --no_interactive)
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	shared.BindGlobalFlags(cmd.PersistentFlags())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
