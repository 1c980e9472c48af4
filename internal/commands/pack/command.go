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

// Package pack implements 'dmops pack': archiving a bundle for upload.
package pack

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/bundle"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
)

// NewCommand creates the pack command.
func NewCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "pack <bundle-dir>",
		Short: "Package a validated bundle into a tar.gz archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := bundle.Pack(args[0], outDir)
			if err != nil {
				return shared.NewInvalidBundleError(fmt.Sprintf("packing %s", args[0]), err)
			}

			if shared.GetJSON() {
				return output.EmitJSON(struct {
					Archive string `json:"archive"`
				}{archive})
			}
			fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("packed "+archive))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the archive into")
	return cmd
}
