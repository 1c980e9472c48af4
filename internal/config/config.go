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

// Package config loads the dmops configuration file and applies
// environment overrides. The file lives at ~/.config/dmops/config.yaml
// unless the --config flag points elsewhere.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	opserrors "github.com/JasonW404-HW/DataMate-Ops/pkg/errors"
)

// Config is the persisted dmops configuration.
type Config struct {
	// Platform holds DataMate backend connection settings.
	Platform PlatformConfig `yaml:"platform,omitempty"`

	// BundleRoots are extra directories searched for operator bundles,
	// in addition to the current working directory.
	BundleRoots []string `yaml:"bundle_roots,omitempty"`

	// History controls the local run journal.
	History HistoryConfig `yaml:"history,omitempty"`
}

// PlatformConfig holds DataMate backend connection settings. The token is
// never stored here; it lives in the OS keyring or DATAMATE_TOKEN.
type PlatformConfig struct {
	// BaseURL is the platform root, e.g. "http://datamate-backend:8080".
	// Empty means the platform is unconfigured and uploads are skipped.
	BaseURL string `yaml:"base_url,omitempty"`
}

// HistoryConfig controls the local run journal.
type HistoryConfig struct {
	// Disabled turns off run recording entirely.
	Disabled bool `yaml:"disabled,omitempty"`

	// Path overrides the journal database location.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{}
}

// Load reads the configuration from path, or from the default location
// when path is empty. A missing file yields the default configuration.
// Environment overrides (DATAMATE_BASE_URL) are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, &opserrors.ConfigError{Key: "path", Reason: "cannot locate config directory", Cause: err}
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, &opserrors.ConfigError{Key: "path", Reason: fmt.Sprintf("cannot read %s", path), Cause: err}
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &opserrors.ConfigError{Key: "path", Reason: fmt.Sprintf("%s is not valid YAML", path), Cause: err}
		}
	}

	if baseURL := os.Getenv("DATAMATE_BASE_URL"); baseURL != "" {
		cfg.Platform.BaseURL = baseURL
	}

	return cfg, nil
}

// Save writes the configuration to path, or to the default location when
// path is empty. The file is created with owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return &opserrors.ConfigError{Key: "path", Reason: "cannot locate config directory", Cause: err}
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &opserrors.ConfigError{Key: "path", Reason: "cannot encode configuration", Cause: err}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return &opserrors.ConfigError{Key: "path", Reason: fmt.Sprintf("cannot write %s", path), Cause: err}
	}

	return nil
}
