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

// Package new implements the 'dmops new' command that scaffolds an
// operator bundle.
package new

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
	"github.com/JasonW404-HW/DataMate-Ops/internal/templates"
)

type options struct {
	description string
	outDir      string
	force       bool
}

// NewCommand creates the new command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Scaffold a new operator bundle",
		Long: `Scaffold a new operator bundle with a metadata manifest, a Mapper
implementation, and a starter test.

The bundle is written to <out>/<name>/ and the operator is named after
its directory. When the name is omitted and a terminal is attached, the
command prompts for it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return scaffoldOperator(cmd, name, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "One-line description for the metadata manifest")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "operators", "Directory to create the bundle under")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite files in an existing bundle directory")

	return cmd
}

func scaffoldOperator(cmd *cobra.Command, name string, opts *options) error {
	if name == "" {
		var err error
		name, err = promptForName(&opts.description)
		if err != nil {
			return err
		}
	}

	scaffold, err := templates.NewScaffold(name, opts.description)
	if err != nil {
		return shared.NewInvalidBundleError(err.Error(), err)
	}

	files, err := scaffold.Files()
	if err != nil {
		return err
	}

	dir := filepath.Join(opts.outDir, scaffold.Name)
	if !opts.force {
		if _, err := os.Stat(dir); err == nil {
			return shared.NewInvalidBundleError(
				fmt.Sprintf("directory %s already exists (use --force to overwrite)", dir), nil)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}

	written := make([]string, 0, len(files))
	for fileName, content := range files {
		path := filepath.Join(dir, fileName)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}

	if shared.GetJSON() {
		return output.EmitJSON(struct {
			Name  string   `json:"name"`
			Dir   string   `json:"dir"`
			Files []string `json:"files"`
		}{Name: scaffold.Name, Dir: dir, Files: written})
	}

	fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Scaffolded operator %q in %s", scaffold.Name, dir)))
	fmt.Fprintf(cmd.OutOrStdout(), "\nNext steps:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  1. Edit %s to declare your parameters\n", filepath.Join(dir, "metadata.yaml"))
	fmt.Fprintf(cmd.OutOrStdout(), "  2. Implement Execute in %s\n", filepath.Join(dir, scaffold.Package+".go"))
	fmt.Fprintf(cmd.OutOrStdout(), "  3. Try it: dmops run %s --sample path/to/file\n", scaffold.Name)
	return nil
}

func promptForName(description *string) (string, error) {
	var name string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Operator name").
				Description("Lowercase letters, digits, and hyphens").
				Validate(templates.ValidateName).
				Value(&name),
			huh.NewInput().
				Title("Description").
				Description("One line for the metadata manifest (optional)").
				Value(description),
		),
	)

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			os.Exit(130) // Standard exit code for SIGINT
		}
		return "", fmt.Errorf("form cancelled: %w", err)
	}
	return name, nil
}
