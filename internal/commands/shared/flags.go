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

package shared

import (
	"github.com/spf13/pflag"
)

// globals holds the persistent flag values every dmops command consults.
// Bound once by the root command; subcommands read through the Get helpers
// instead of threading the values down.
var globals struct {
	verbose bool
	quiet   bool
	json    bool
	config  string
}

// Build metadata, stamped through SetVersion from main's ldflags.
var build = struct {
	version string
	commit  string
	date    string
}{
	version: "dev",
	commit:  "unknown",
	date:    "unknown",
}

// BindGlobalFlags registers the persistent flags on the root command's
// flag set and wires them to the package-level values.
func BindGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&globals.verbose, "verbose", "v", false, "Enable verbose output")
	fs.BoolVarP(&globals.quiet, "quiet", "q", false, "Suppress non-error output")
	fs.BoolVar(&globals.json, "json", false, "Output in JSON format")
	fs.StringVar(&globals.config, "config", "", "Path to config file (default: ~/.config/dmops/config.yaml)")
}

// GetVerbose reports whether --verbose was passed.
func GetVerbose() bool {
	return globals.verbose
}

// GetQuiet reports whether --quiet was passed.
func GetQuiet() bool {
	return globals.quiet
}

// GetJSON reports whether --json was passed.
func GetJSON() bool {
	return globals.json
}

// GetConfigPath returns the --config override, or "" for the default path.
func GetConfigPath() string {
	return globals.config
}

// SetVersion records the build metadata (called from main).
func SetVersion(version, commit, date string) {
	build.version = version
	build.commit = commit
	build.date = date
}

// GetVersion returns the recorded version, commit, and build date.
func GetVersion() (string, string, string) {
	return build.version, build.commit, build.date
}
