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

// Package history keeps a local journal of harness runs in SQLite so past
// debug sessions can be inspected with 'dmops history'.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run status values recorded in the journal.
const (
	// StatusArtifact marks a run whose operator produced an artifact.
	StatusArtifact = "artifact"

	// StatusFailure marks a run whose operator reported a failure
	// descriptor for the sample.
	StatusFailure = "failure"

	// StatusFatal marks a run aborted by a fatal execution fault.
	StatusFatal = "fatal"
)

// Record is one journal entry describing a single harness run.
type Record struct {
	// ID is the harness run identifier.
	ID string

	// Operator is the operator identifier that ran.
	Operator string

	// Source records where the operator was resolved from.
	Source string

	// Sample is the file name of the processed sample, if any.
	Sample string

	// Status is one of StatusArtifact, StatusFailure, StatusFatal.
	Status string

	// FailureKind is the failure descriptor kind for StatusFailure runs.
	FailureKind string

	// Message holds the failure or fatal error message.
	Message string

	// Params are the validated parameter bindings the run used.
	Params map[string]interface{}

	// DurationMs is the wall-clock execution time in milliseconds.
	DurationMs int64

	// StartedAt is when the run began.
	StartedAt time.Time
}

// Store provides SQLite-backed journal storage.
type Store struct {
	db *sql.DB
}

// Config contains journal storage configuration.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// Special value ":memory:" creates an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int
}

// Open opens (creating if necessary) the journal database.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	// WAL mode keeps concurrent reads cheap while a run is being appended
	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns == 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate creates the journal schema.
func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			operator TEXT NOT NULL,
			source TEXT NOT NULL,
			sample TEXT,
			status TEXT NOT NULL,
			failure_kind TEXT,
			message TEXT,
			params TEXT,
			duration_ms INTEGER NOT NULL,
			started_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_operator ON runs(operator)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Append stores one run record.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if rec.Operator == "" {
		return fmt.Errorf("record operator is required")
	}

	paramsJSON, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	query := `
		INSERT INTO runs (id, operator, source, sample, status, failure_kind,
			message, params, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.Operator, rec.Source, rec.Sample, rec.Status,
		rec.FailureKind, rec.Message, string(paramsJSON),
		rec.DurationMs, rec.StartedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append run: %w", err)
	}

	return nil
}

// Filter narrows List results.
type Filter struct {
	// Operator restricts to a single operator identifier.
	Operator string

	// Status restricts to a journal status value.
	Status string

	// Since restricts to runs that started after this time.
	Since *time.Time

	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// List returns journal records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `
		SELECT id, operator, source, sample, status, failure_kind,
			message, params, duration_ms, started_at
		FROM runs WHERE 1=1
	`
	args := []any{}

	if filter.Operator != "" {
		query += " AND operator = ?"
		args = append(args, filter.Operator)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Since != nil {
		query += " AND started_at >= ?"
		args = append(args, filter.Since.UnixNano())
	}

	query += " ORDER BY started_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Get retrieves a single run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT id, operator, source, sample, status, failure_kind,
			message, params, duration_ms, started_at
		FROM runs WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// Prune deletes runs that started before the given time.
// Returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE started_at < ?",
		before.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	count, _ := result.RowsAffected()
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var sample, failureKind, message, paramsJSON sql.NullString
	var startedAt int64

	err := row.Scan(
		&rec.ID, &rec.Operator, &rec.Source, &sample, &rec.Status,
		&failureKind, &message, &paramsJSON, &rec.DurationMs, &startedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.Sample = sample.String
	rec.FailureKind = failureKind.String
	rec.Message = message.String
	rec.StartedAt = time.Unix(0, startedAt)

	if paramsJSON.String != "" && paramsJSON.String != "null" {
		if err := json.Unmarshal([]byte(paramsJSON.String), &rec.Params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}

	return &rec, nil
}
