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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JasonW404-HW/DataMate-Ops/internal/cli"
	configcmd "github.com/JasonW404-HW/DataMate-Ops/internal/commands/config"
	historycmd "github.com/JasonW404-HW/DataMate-Ops/internal/commands/history"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/list"
	newcmd "github.com/JasonW404-HW/DataMate-Ops/internal/commands/new"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/pack"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/push"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/run"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/show"
	"github.com/JasonW404-HW/DataMate-Ops/internal/commands/validate"
	versioncmd "github.com/JasonW404-HW/DataMate-Ops/internal/commands/version"

	// Builtin operators register themselves with the registry.
	_ "github.com/JasonW404-HW/DataMate-Ops/operators/builtin"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version information from build-time ldflags
	cli.SetVersion(version, commit, buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand()

	// Authoring commands
	rootCmd.AddCommand(newcmd.NewCommand())
	rootCmd.AddCommand(validate.NewCommand())

	// Debugging commands
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(list.NewCommand())
	rootCmd.AddCommand(show.NewCommand())
	rootCmd.AddCommand(historycmd.NewCommand())

	// Distribution commands
	rootCmd.AddCommand(pack.NewCommand())
	rootCmd.AddCommand(push.NewCommand())

	// Configuration commands
	rootCmd.AddCommand(configcmd.NewCommand())

	// Version command
	rootCmd.AddCommand(versioncmd.NewCommand())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.HandleExitError(err)
	}
}
