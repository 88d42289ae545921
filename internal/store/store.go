// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists diff results in SQLite so that comparisons can be
// listed, reopened, and queried record by record after the job finished.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

const (
	dbFile    = "floorplan-diff.db"
	exportDir = "exports"

	// timeLayout is fixed-width so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned when no diff has the requested id.
var ErrNotFound = errors.New("diff not found")

// Store manages the diff database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
	now        func() time.Time
}

// Meta describes a stored diff without its records.
type Meta struct {
	ID        string            `json:"id" yaml:"id"`
	Label     string            `json:"label,omitempty" yaml:"label,omitempty"`
	Original  string            `json:"original,omitempty" yaml:"original,omitempty"`
	Revised   string            `json:"revised,omitempty" yaml:"revised,omitempty"`
	Profile   string            `json:"profile" yaml:"profile"`
	Method    string            `json:"method" yaml:"method"`
	Summary   types.DiffSummary `json:"summary" yaml:"summary"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
}

// SaveOptions names what was compared.
type SaveOptions struct {
	Label    string
	Original string
	Revised  string
}

// Diff is a stored result with its metadata.
type Diff struct {
	Meta   `json:",inline" yaml:",inline"`
	Result types.DiffResult `json:"result" yaml:"result"`
}

// Open opens or creates the diff database at cfg.Dir/floorplan-diff.db.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS diffs (
			id TEXT PRIMARY KEY,
			label TEXT,
			original TEXT,
			revised TEXT,
			profile TEXT NOT NULL,
			method TEXT NOT NULL,
			added INTEGER NOT NULL,
			removed INTEGER NOT NULL,
			modified INTEGER NOT NULL,
			unchanged INTEGER NOT NULL,
			total_original INTEGER NOT NULL,
			total_revised INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			normalization TEXT NOT NULL,
			profile_json TEXT NOT NULL,
			diagnostics TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS diff_records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			diff_id TEXT NOT NULL REFERENCES diffs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			entity_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			layer TEXT,
			change_type TEXT NOT NULL,
			record TEXT NOT NULL,
			UNIQUE (diff_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diffs_created_at ON diffs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_diff_change ON diff_records(diff_id, change_type)`,
		`CREATE INDEX IF NOT EXISTS idx_records_entity ON diff_records(diff_id, entity_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores res under a new id and returns its metadata.
func (s *Store) Save(ctx context.Context, res *types.DiffResult, opts SaveOptions) (Meta, error) {
	meta := Meta{
		ID:        uuid.NewString(),
		Label:     opts.Label,
		Original:  opts.Original,
		Revised:   opts.Revised,
		Profile:   res.Profile.Name,
		Method:    string(res.Normalization.Method),
		Summary:   res.Summary,
		CreatedAt: s.now().UTC(),
	}

	normJSON, err := json.Marshal(res.Normalization)
	if err != nil {
		return Meta{}, fmt.Errorf("encoding normalization: %w", err)
	}
	profileJSON, err := json.Marshal(res.Profile)
	if err != nil {
		return Meta{}, fmt.Errorf("encoding profile: %w", err)
	}
	diagJSON, err := json.Marshal(res.Diagnostics)
	if err != nil {
		return Meta{}, fmt.Errorf("encoding diagnostics: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO diffs (id, label, original, revised, profile, method,
			added, removed, modified, unchanged, total_original, total_revised,
			created_at, normalization, profile_json, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Label, meta.Original, meta.Revised, meta.Profile, meta.Method,
		res.Summary.Added, res.Summary.Removed, res.Summary.Modified, res.Summary.Unchanged,
		res.Summary.TotalOriginal, res.Summary.TotalRevised,
		meta.CreatedAt.Format(timeLayout), string(normJSON), string(profileJSON), string(diagJSON),
	)
	if err != nil {
		return Meta{}, fmt.Errorf("inserting diff: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO diff_records (diff_id, seq, entity_id, entity_type, layer, change_type, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Meta{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range res.Records {
		recJSON, err := json.Marshal(rec)
		if err != nil {
			return Meta{}, fmt.Errorf("encoding record %s: %w", rec.EntityID, err)
		}
		_, err = stmt.ExecContext(ctx,
			meta.ID, i, rec.EntityID, string(rec.EntityType), rec.Layer, string(rec.ChangeType), string(recJSON),
		)
		if err != nil {
			return Meta{}, fmt.Errorf("inserting record %s: %w", rec.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Meta{}, fmt.Errorf("committing diff: %w", err)
	}
	return meta, nil
}

// Delete removes a diff and its records.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diffs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting diff %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting diff %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("diff %s: %w", id, ErrNotFound)
	}
	return nil
}
