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

package run

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// isInteractiveModeAllowed determines if interactive prompts are allowed.
// Interactive mode is disabled if:
// - --no-interactive flag is set
// - DMOPS_NO_INTERACTIVE env var is set
// - Running in a CI environment
// - stdin is not a TTY
func isInteractiveModeAllowed(noInteractive bool) bool {
	// Explicit flag takes precedence
	if noInteractive {
		return false
	}

	// Check DMOPS_NO_INTERACTIVE environment variable
	if envVal := os.Getenv("DMOPS_NO_INTERACTIVE"); envVal != "" {
		switch strings.ToLower(envVal) {
		case "true", "1", "yes":
			return false
		}
	}

	// Check for CI environment variables
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"TRAVIS",
		"BUILDKITE",
		"DRONE",
		"JENKINS_HOME",
		"TEAMCITY_VERSION",
	}
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	// Check if stdin is a TTY
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}

	return true
}

// loadParamsFile loads parameter values from a YAML or JSON file, or from
// stdin when path is "-". YAML is a superset of JSON, so one decoder
// covers both.
func loadParamsFile(path string) (map[string]interface{}, error) {
	var data []byte
	var err error

	if path == "-" {
		// Check if stdin has data (not a terminal)
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return nil, fmt.Errorf("--params-file - requires input on stdin (pipe or redirect)")
		}
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read params file: %w", err)
		}
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse params file: %w", err)
	}
	if values == nil {
		values = make(map[string]interface{})
	}
	return values, nil
}

// parseParams parses -p key=value arguments and optionally merges them
// over values loaded from a file. Command-line values win.
func parseParams(paramArgs []string, paramsFile string) (map[string]interface{}, error) {
	var values map[string]interface{}
	if paramsFile != "" {
		var err error
		values, err = loadParamsFile(paramsFile)
		if err != nil {
			return nil, err
		}
	} else {
		values = make(map[string]interface{})
	}

	for _, arg := range paramArgs {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid parameter format %q (expected key=value)", arg)
		}
		values[parts[0]] = parts[1]
	}

	return values, nil
}
