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

// Package config implements the 'dmops config' command group.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/shared"
	"github.com/JasonW404-HW/DataMate-Ops/internal/config"
	"github.com/JasonW404-HW/DataMate-Ops/internal/output"
	"github.com/JasonW404-HW/DataMate-Ops/internal/secrets"
)

// NewCommand creates the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dmops configuration and credentials",
		Long: `Manage the dmops configuration file and the platform token.

Settable keys:
  platform.base_url   DataMate backend root URL
  bundle_roots        Comma-separated directories searched for bundles
  history.disabled    Disable the run journal (true or false)
  history.path        Override the journal database location

The platform token is stored in the OS keyring, never in the file.`,
	}

	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newSetTokenCommand())
	cmd.AddCommand(newDeleteTokenCommand())

	return cmd
}

// configFilePath resolves the file the config subcommands operate on,
// honoring --config.
func configFilePath() (string, error) {
	if path := shared.GetConfigPath(); path != "" {
		return path, nil
	}
	return config.ConfigPath()
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print the configuration, or one key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if shared.GetJSON() {
					return output.EmitJSON(toView(cfg))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "platform.base_url = %s\n", cfg.Platform.BaseURL)
				fmt.Fprintf(out, "bundle_roots = %s\n", strings.Join(cfg.BundleRoots, ","))
				fmt.Fprintf(out, "history.disabled = %t\n", cfg.History.Disabled)
				fmt.Fprintf(out, "history.path = %s\n", cfg.History.Path)
				return nil
			}

			value, err := getKey(cfg, args[0])
			if err != nil {
				return err
			}
			if shared.GetJSON() {
				return output.EmitJSON(struct {
					Key   string `json:"key"`
					Value string `json:"value"`
				}{Key: args[0], Value: value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration key and save the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := setKey(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			if !shared.GetQuiet() {
				fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Set %s in %s", args[0], path)))
			}
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newSetTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token",
		Short: "Store the platform token in the OS keyring",
		Long: `Store the DataMate platform token in the OS keyring.

The token is read from standard input when piped, otherwise prompted
for without echo. DATAMATE_TOKEN takes precedence over the keyring at
run time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return err
			}
			if token == "" {
				return shared.NewMissingInputError("token must not be empty", nil)
			}

			store := secrets.NewStore()
			if !store.Available() {
				return fmt.Errorf("OS keyring is unavailable; set DATAMATE_TOKEN instead")
			}
			if err := store.SetToken(token); err != nil {
				return fmt.Errorf("storing token: %w", err)
			}
			if !shared.GetQuiet() {
				fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("Token stored in OS keyring"))
			}
			return nil
		},
	}
}

func newDeleteTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-token",
		Short: "Remove the platform token from the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := secrets.NewStore().DeleteToken(); err != nil {
				return fmt.Errorf("deleting token: %w", err)
			}
			if !shared.GetQuiet() {
				fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("Token removed from OS keyring"))
			}
			return nil
		},
	}
}

// readToken reads the token from piped stdin, or prompts without echo
// on a terminal.
func readToken(cmd *cobra.Command) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		var token string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &token); err != nil {
			return "", fmt.Errorf("reading token from stdin: %w", err)
		}
		return strings.TrimSpace(token), nil
	}

	fmt.Fprint(cmd.OutOrStdout(), "Token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

type view struct {
	Platform struct {
		BaseURL string `json:"base_url"`
	} `json:"platform"`
	BundleRoots []string `json:"bundle_roots"`
	History     struct {
		Disabled bool   `json:"disabled"`
		Path     string `json:"path"`
	} `json:"history"`
}

func toView(cfg *config.Config) view {
	var v view
	v.Platform.BaseURL = cfg.Platform.BaseURL
	v.BundleRoots = cfg.BundleRoots
	v.History.Disabled = cfg.History.Disabled
	v.History.Path = cfg.History.Path
	return v
}

func getKey(cfg *config.Config, key string) (string, error) {
	switch key {
	case "platform.base_url":
		return cfg.Platform.BaseURL, nil
	case "bundle_roots":
		return strings.Join(cfg.BundleRoots, ","), nil
	case "history.disabled":
		return strconv.FormatBool(cfg.History.Disabled), nil
	case "history.path":
		return cfg.History.Path, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func setKey(cfg *config.Config, key, value string) error {
	switch key {
	case "platform.base_url":
		cfg.Platform.BaseURL = strings.TrimRight(value, "/")
	case "bundle_roots":
		if value == "" {
			cfg.BundleRoots = nil
			return nil
		}
		roots := strings.Split(value, ",")
		for i := range roots {
			roots[i] = strings.TrimSpace(roots[i])
		}
		cfg.BundleRoots = roots
	case "history.disabled":
		disabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("history.disabled must be true or false: %w", err)
		}
		cfg.History.Disabled = disabled
	case "history.path":
		cfg.History.Path = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
