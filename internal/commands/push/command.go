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

// Package push implements 'dmops push': packaging a bundle and uploading
// it to the platform.
package push

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/bundle"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/datamate"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
	"github.com/JasonW404-HW/DataMate-Ops/internal/secrets"
)

// NewCommand creates the push command.
func NewCommand() *cobra.Command {
	var keepArchive bool

	cmd := &cobra.Command{
		Use:   "push <bundle-dir|archive>",
		Short: "Upload an operator bundle to the platform",
		Long: `Push uploads a bundle to the configured platform. A directory is
validated and packaged first; a .tar.gz archive is uploaded as is.
The base URL comes from the config file or DATAMATE_BASE_URL; the
token from the keychain or DATAMATE_TOKEN.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return shared.NewExecutionError("loading configuration", err)
			}
			if cfg.Platform.BaseURL == "" {
				return shared.NewPlatformError(
					"no platform configured: set platform.base_url in the config file or DATAMATE_BASE_URL", nil)
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return shared.NewMissingInputError(fmt.Sprintf("bundle %s", args[0]), err)
			}

			archive := args[0]
			if info.IsDir() {
				archive, err = bundle.Pack(args[0], os.TempDir())
				if err != nil {
					return shared.NewInvalidBundleError(fmt.Sprintf("packing %s", args[0]), err)
				}
				if !keepArchive {
					defer os.Remove(archive)
				}
			}

			token, _ := secrets.NewStore().Token()
			client, err := datamate.New(datamate.Config{
				BaseURL: cfg.Platform.BaseURL,
				Token:   token,
				Logger:  shared.NewLogger(),
			})
			if err != nil {
				return shared.NewPlatformError("creating platform client", err)
			}

			if err := client.UploadBundle(cmd.Context(), archive); err != nil {
				return shared.NewPlatformError("uploading bundle", err)
			}

			if shared.GetJSON() {
				return output.EmitJSON(struct {
					Archive string `json:"archive"`
					Target  string `json:"target"`
				}{archive, cfg.Platform.BaseURL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("pushed "+args[0]+" to "+cfg.Platform.BaseURL))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepArchive, "keep-archive", false, "Keep the packed archive after upload")
	return cmd
}
