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

// Package pathopre preprocesses pathology system exports. A hospital
// export is a directory holding a diagnosis CSV (case_no, diagnosis, ...)
// and a slide inventory CSV (case_no, slide_path, thumbnail_path, ...).
// The operator inner-joins the two on case_no, drops slides that cannot
// be served, rewrites storage paths for the target mount, and emits the
// merged records as a JSON artifact.
package pathopre

import (
	"context"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JasonW404-HW/DataMate-Ops/internal/config"
	"github.com/JasonW404-HW/DataMate-Ops/internal/datamate"
	"github.com/JasonW404-HW/DataMate-Ops/internal/log"
	"github.com/JasonW404-HW/DataMate-Ops/internal/registry"
	"github.com/JasonW404-HW/DataMate-Ops/internal/secrets"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/metadata"
	"github.com/JasonW404-HW/DataMate-Ops/pkg/operator"
)

//go:embed metadata.yaml
var manifestYAML []byte

func init() {
	registry.Register("pathopre.New", New, manifestYAML)
}

// ArtifactFileName is the file name stamped on the merged-records artifact.
const ArtifactFileName = "case_diagnosis_slides.json"

const (
	columnCaseNo        = "case_no"
	columnDiagnosis     = "diagnosis"
	columnSlidePath     = "slide_path"
	columnThumbnailPath = "thumbnail_path"
)

// Preprocess merges diagnosis and slide CSVs into dataset records.
// Instances hold no per-sample state, so they are safe to reuse across a
// batch and across goroutines.
type Preprocess struct {
	transformer string
	ignoreSdpc  bool
	upload      bool
	logger      *slog.Logger
}

// New constructs the operator from validated bindings.
func New(params *metadata.Bindings) (operator.Mapper, error) {
	return &Preprocess{
		transformer: params.String("pathTransformer"),
		ignoreSdpc:  params.Bool("ignoreSdpc"),
		upload:      params.Bool("upload"),
		logger:      log.WithComponent(log.New(log.FromEnv()), "pathopre"),
	}, nil
}

// BatchSafe reports that one instance may serve a whole batch.
func (p *Preprocess) BatchSafe() bool { return true }

// ConcurrencySafe reports that instances tolerate concurrent Execute calls.
func (p *Preprocess) ConcurrencySafe() bool { return true }

// Execute reads the diagnosis CSV named by the sample's file path, joins
// it with the sibling slide CSV, and returns the merged records as a JSON
// artifact. Samples that violate the input contract produce failure
// results, never errors.
func (p *Preprocess) Execute(ctx context.Context, sample *operator.Sample) (*operator.Result, error) {
	if sample.FilePath == "" {
		return operator.BadInput("filePath", "sample carries no source file path"), nil
	}
	if !strings.EqualFold(filepath.Ext(sample.FilePath), ".csv") {
		return operator.BadInput("filePath", "expected a CSV file, got %q", filepath.Base(sample.FilePath)), nil
	}

	diagnosisPath := sample.FilePath
	diagnosisDir := filepath.Dir(diagnosisPath)
	diagnosisName := filepath.Base(diagnosisPath)

	p.logger.Info("processing diagnosis export", log.String("path", diagnosisPath))

	diagnosis, err := readTable(diagnosisPath)
	if err != nil {
		return operator.BadInput("filePath", "diagnosis CSV: %v", err), nil
	}
	if !diagnosis.hasColumns(columnCaseNo, columnDiagnosis) {
		return operator.Precondition(columnCaseNo,
			"diagnosis CSV must carry %s and %s columns", columnCaseNo, columnDiagnosis), nil
	}

	slidePath, err := findSiblingCSV(diagnosisDir, diagnosisName)
	if err != nil {
		return operator.Precondition("filePath", "%v", err), nil
	}

	slides, err := readTable(slidePath)
	if err != nil {
		return operator.Precondition("filePath", "slide CSV %s: %v", filepath.Base(slidePath), err), nil
	}
	if !slides.hasColumns(columnCaseNo, columnSlidePath) {
		return operator.Precondition(columnSlidePath,
			"slide CSV must carry %s and %s columns", columnCaseNo, columnSlidePath), nil
	}

	// A slide inventory without thumbnails cannot serve .sdpc slides at
	// all, so the sdpc filter tightens for this sample only.
	ignoreSdpc := p.ignoreSdpc
	if !slides.hasColumns(columnThumbnailPath) {
		p.logger.Warn("slide CSV has no thumbnail_path column, dropping all .sdpc slides",
			log.String("path", slidePath))
		ignoreSdpc = true
	}

	p.logger.Info("tables read",
		log.Int("diagnosis_rows", len(diagnosis.rows)),
		log.Int("slide_rows", len(slides.rows)),
	)

	records := join(diagnosis, slides)
	records = p.filter(records, ignoreSdpc)
	p.rewritePaths(records)

	p.logger.Info("records merged", log.Int("rows", len(records)))

	if p.upload {
		if result := p.register(ctx, sample, records); result != nil {
			return result, nil
		}
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding merged records: %w", err)
	}

	artifact := sample.Clone()
	artifact.Text = string(payload)
	artifact.FileName = ArtifactFileName
	artifact.FileType = "json"
	return operator.NewArtifact(artifact), nil
}

// record is one merged row, keyed by column name.
type record map[string]string

// table is a parsed CSV: a column set plus rows keyed by column name.
type table struct {
	columns map[string]bool
	order   []string
	rows    []record
}

func (t *table) hasColumns(names ...string) bool {
	for _, name := range names {
		if !t.columns[name] {
			return false
		}
	}
	return true
}

// readTable parses a CSV file whose first row is the header.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}

	t := &table{columns: make(map[string]bool, len(header)), order: header}
	for _, col := range header {
		t.columns[col] = true
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		rec := make(record, len(header))
		for i, col := range header {
			rec[col] = row[i]
		}
		t.rows = append(t.rows, rec)
	}
}

// findSiblingCSV locates the slide inventory: the first file in the
// export directory other than the diagnosis CSV itself.
func findSiblingCSV(dir, diagnosisName string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == diagnosisName {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no slide CSV found next to %s", diagnosisName)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// join inner-joins diagnosis rows with slide rows on case_no. Slide
// columns win on name collisions other than the join key.
func join(diagnosis, slides *table) []record {
	byCase := make(map[string][]record, len(slides.rows))
	for _, row := range slides.rows {
		key := row[columnCaseNo]
		byCase[key] = append(byCase[key], row)
	}

	var merged []record
	for _, diag := range diagnosis.rows {
		for _, slide := range byCase[diag[columnCaseNo]] {
			rec := make(record, len(diag)+len(slide))
			for k, v := range diag {
				rec[k] = v
			}
			for k, v := range slide {
				rec[k] = v
			}
			merged = append(merged, rec)
		}
	}
	return merged
}

// filter drops records that cannot be served: empty slide paths always,
// and .sdpc slides either entirely (ignoreSdpc) or when they have no
// thumbnail to stand in for them.
func (p *Preprocess) filter(records []record, ignoreSdpc bool) []record {
	kept := records[:0]
	for _, rec := range records {
		slide := rec[columnSlidePath]
		if slide == "" {
			continue
		}
		if strings.HasSuffix(slide, ".sdpc") {
			if ignoreSdpc || rec[columnThumbnailPath] == "" {
				continue
			}
		}
		kept = append(kept, rec)
	}
	return kept
}

// rewritePaths applies the configured transform rule to slide and
// thumbnail paths in place.
func (p *Preprocess) rewritePaths(records []record) {
	for _, rec := range records {
		rec[columnSlidePath] = p.transformPath(rec[columnSlidePath])
		if thumb := rec[columnThumbnailPath]; thumb != "" {
			rec[columnThumbnailPath] = p.transformPath(thumb)
		}
	}
}

// transformPath rewrites one storage path under the configured rule:
// empty (or the "<>" placeholder) keeps the path, "old:new" replaces the
// prefix, anything else is prepended as the parent directory.
func (p *Preprocess) transformPath(known string) string {
	rule := strings.TrimSpace(p.transformer)
	if rule == "" || rule == "<>" {
		return known
	}

	if idx := strings.Index(rule, ":"); idx >= 0 {
		oldPrefix, newPrefix := rule[:idx], rule[idx+1:]
		if !strings.HasPrefix(known, oldPrefix) {
			p.logger.Warn("path does not carry the expected prefix",
				log.String("path", known), log.String("prefix", oldPrefix))
			return known
		}
		return filepath.Clean(newPrefix + known[len(oldPrefix):])
	}

	// Mount point completion: absolute paths lose their root so they
	// land under the mount.
	return filepath.Join(rule, strings.TrimPrefix(known, "/"))
}

// register pushes the merged records to the dataset ingestion API: one
// record per slide (carrying the remaining columns as metadata) and one
// per thumbnail. A non-nil return is the failure result to surface.
func (p *Preprocess) register(ctx context.Context, sample *operator.Sample, records []record) *operator.Result {
	if sample.ExportPath == "" {
		return operator.Precondition("export_path", "upload requested but the sample names no dataset")
	}
	dataset := filepath.Base(sample.ExportPath)

	client, err := platformClient(p.logger)
	if err != nil {
		return operator.Upstream("export_path", "platform client: %v", err)
	}
	if client == nil {
		p.logger.Warn("upload requested but no platform base URL is configured, skipping")
		return nil
	}

	slideRecords := make([]datamate.FileRecord, 0, len(records))
	thumbRecords := make([]datamate.FileRecord, 0, len(records))
	for _, rec := range records {
		meta := make(map[string]interface{}, len(rec)-1)
		for k, v := range rec {
			if k != columnSlidePath {
				meta[k] = v
			}
		}
		slideRecords = append(slideRecords, datamate.FileRecord{
			FilePath: rec[columnSlidePath],
			Metadata: meta,
		})
		if thumb := rec[columnThumbnailPath]; thumb != "" {
			thumbRecords = append(thumbRecords, datamate.FileRecord{FilePath: thumb})
		}
	}

	if err := client.AddFiles(ctx, dataset, slideRecords); err != nil {
		return operator.Upstream("export_path", "registering slide records: %v", err)
	}
	if err := client.AddFiles(ctx, dataset, thumbRecords); err != nil {
		return operator.Upstream("export_path", "registering thumbnail records: %v", err)
	}

	p.logger.Info("records registered with dataset",
		log.String(log.DatasetKey, dataset),
		log.Int("slides", len(slideRecords)),
		log.Int("thumbnails", len(thumbRecords)),
	)
	return nil
}

// platformClient builds a client from the ambient configuration. A nil
// client with nil error means the platform is not configured.
func platformClient(logger *slog.Logger) (*datamate.Client, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Platform.BaseURL == "" {
		return nil, nil
	}

	token, _ := secrets.NewStore().Token()

	return datamate.New(datamate.Config{
		BaseURL: cfg.Platform.BaseURL,
		Token:   token,
		Logger:  logger,
	})
}
