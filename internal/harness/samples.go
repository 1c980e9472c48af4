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

package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

// Dataset layout under the dataset root: source files live in source/,
// operator output is addressed to output/.
const (
	sourceDirName = "source"
	outputDirName = "output"
)

// CollectSamples scans <root>/source for input files and fabricates one
// Sample per match. sourceType is either a bare extension ("csv") or a
// doublestar pattern ("**/*.csv"); targetType is stamped into each sample
// as the requested output type. Samples are returned in path order.
func CollectSamples(root, sourceType, targetType string) ([]*operator.Sample, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("dataset root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("dataset root %s: %w", root, err)
	}

	sourceDir := filepath.Join(absRoot, sourceDirName)
	if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("dataset root %s has no %s directory", root, sourceDirName)
	}

	pattern := sourceType
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "*." + strings.TrimPrefix(pattern, ".")
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid source pattern %q", sourceType)
	}

	matches, err := doublestar.Glob(os.DirFS(sourceDir), pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", sourceDir, err)
	}
	sort.Strings(matches)

	exportPath := filepath.Join(absRoot, outputDirName)

	var samples []*operator.Sample
	for _, match := range matches {
		path := filepath.Join(sourceDir, filepath.FromSlash(match))
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		sample := NewSample(path, targetType)
		sample.FileSize = strconv.FormatInt(info.Size(), 10)
		sample.ExportPath = exportPath
		samples = append(samples, sample)
	}

	return samples, nil
}

// NewSample fabricates a sample record for a single source file, the way
// the platform would present it to an operator. The file ID is a fresh
// UUID; FileSize and ExportPath are filled when known.
func NewSample(path, targetType string) *operator.Sample {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")

	return &operator.Sample{
		FileName:   base,
		FileType:   ext,
		FileID:     uuid.NewString(),
		FilePath:   path,
		TargetType: targetType,
	}
}

// LoadSample fabricates a sample for one explicit file, for `dmops run
// --sample`. The export path defaults to an output directory next to the
// file.
func LoadSample(path, targetType string) (*operator.Sample, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("sample path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("sample file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("sample path %s is a directory (use --dataset for directories)", path)
	}

	sample := NewSample(abs, targetType)
	sample.FileSize = strconv.FormatInt(info.Size(), 10)
	sample.ExportPath = filepath.Join(filepath.Dir(abs), outputDirName)

	return sample, nil
}
