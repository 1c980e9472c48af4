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

// Package bundle checks operator bundle layout and packages bundles into
// tar.gz archives for upload to the DataMate platform.
//
// A bundle is a directory named after its operator, holding exactly one
// metadata.yaml artifact plus the entry source implementing the operator.
// Dependencies declared inside the bundle are bundle-local and not
// interpreted here.
package bundle

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
)

// CheckResult describes a validated bundle directory.
type CheckResult struct {
	// Dir is the bundle directory that was checked.
	Dir string

	// Manifest is the parsed metadata artifact.
	Manifest *metadata.Manifest

	// EntrySources are the source files found next to the artifact.
	EntrySources []string
}

// Check validates the layout of a bundle directory: the directory must
// exist, carry exactly one metadata artifact, and contain at least one
// entry source. The artifact's name must match the directory base name so
// registry resolution by directory convention works after upload.
func Check(dir string) (*CheckResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("bundle directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("bundle path %s is not a directory", dir)
	}

	manifest, err := metadata.LoadFile(filepath.Join(dir, metadata.ArtifactName))
	if err != nil {
		return nil, err
	}

	base := filepath.Base(filepath.Clean(dir))
	if manifest.Name != base {
		return nil, &metadata.ParseError{
			Source: filepath.Join(dir, metadata.ArtifactName),
			Field:  "name",
			Reason: fmt.Sprintf("operator %q does not match bundle directory %q", manifest.Name, base),
		}
	}

	sources, err := entrySources(dir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("bundle %s has no entry source next to %s", dir, metadata.ArtifactName)
	}

	return &CheckResult{Dir: dir, Manifest: manifest, EntrySources: sources}, nil
}

// entrySources lists source files in the bundle directory, sorted.
func entrySources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading bundle directory: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		if strings.HasSuffix(name, ".go") || strings.HasSuffix(name, ".py") {
			sources = append(sources, name)
		}
	}
	sort.Strings(sources)

	return sources, nil
}

// Pack checks a bundle directory and writes <name>-<version>.tar.gz into
// outDir. Archive entries are rooted at the operator name so the platform
// unpacks each bundle into its own directory. Returns the archive path.
func Pack(dir, outDir string) (string, error) {
	result, err := Check(dir)
	if err != nil {
		return "", err
	}

	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	archiveName := fmt.Sprintf("%s-%s.tar.gz", result.Manifest.Name, result.Manifest.Version)
	archivePath := filepath.Join(outDir, archiveName)

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	if err := writeArchive(out, dir, result.Manifest.Name); err != nil {
		out.Close()
		os.Remove(archivePath)
		return "", err
	}

	if err := out.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("closing archive: %w", err)
	}

	return archivePath, nil
}

// writeArchive streams the bundle directory into a gzipped tarball.
func writeArchive(out io.Writer, dir, root string) error {
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		name := filepath.ToSlash(filepath.Join(root, rel))

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("archiving %s: %w", rel, err)
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("archiving %s: %w", rel, err)
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", rel, err)
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("archiving %s: %w", rel, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing gzip: %w", err)
	}

	return nil
}
