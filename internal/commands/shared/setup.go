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
	"log/slog"

	"github.com/JasonW404-HW/DataMate-Ops/internal/config"
	"github.com/JasonW404-HW/DataMate-Ops/internal/history"
	"github.com/JasonW404-HW/DataMate-Ops/internal/log"
	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
)

// LoadConfig loads the dmops configuration, honoring --config when set.
func LoadConfig() (*config.Config, error) {
	path := GetConfigPath()
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// OpenRegistry builds the operator registry: builtins plus the configured
// bundle roots.
func OpenRegistry(cfg *config.Config) *registry.Registry {
	roots := make([]registry.Root, 0, len(cfg.BundleRoots))
	for _, dir := range cfg.BundleRoots {
		roots = append(roots, registry.DirRoot(dir))
	}
	return registry.New(roots...)
}

// OpenJournal opens the run journal, or returns nil when recording is
// disabled.
func OpenJournal(cfg *config.Config) (*history.Store, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	path := cfg.History.Path
	if path == "" {
		var err error
		path, err = config.JournalPath()
		if err != nil {
			return nil, err
		}
	}
	return history.Open(history.Config{Path: path})
}

// NewLogger builds the command logger, adjusting the environment level
// for --verbose and --quiet.
func NewLogger() *slog.Logger {
	cfg := log.FromEnv()
	if GetVerbose() {
		cfg.Level = "debug"
	}
	if GetQuiet() {
		cfg.Level = "error"
	}
	return log.New(cfg)
}
