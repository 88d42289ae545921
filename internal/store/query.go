// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// ListOptions pages through stored diffs, newest first.
type ListOptions struct {
	// Limit caps the result count. Zero uses the store default.
	Limit  int
	Offset int
}

// RecordQuery selects records of one diff.
type RecordQuery struct {
	ChangeType types.ChangeType
	EntityType types.EntityType
	Layer      string
	EntityID   string

	// Limit caps the result count. Zero uses the store default; negative
	// returns every record.
	Limit  int
	Offset int
}

const metaColumns = `id, label, original, revised, profile, method,
	added, removed, modified, unchanged, total_original, total_revised, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(row scanner, extra ...any) (Meta, error) {
	var (
		m                        Meta
		label, original, revised sql.NullString
		created                  string
	)
	dest := append([]any{
		&m.ID, &label, &original, &revised, &m.Profile, &m.Method,
		&m.Summary.Added, &m.Summary.Removed, &m.Summary.Modified, &m.Summary.Unchanged,
		&m.Summary.TotalOriginal, &m.Summary.TotalRevised, &created,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Meta{}, err
	}
	m.Label = label.String
	m.Original = original.String
	m.Revised = revised.String
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Meta{}, fmt.Errorf("parsing created_at of %s: %w", m.ID, err)
	}
	m.CreatedAt = t
	return m, nil
}

// List returns stored diffs ordered by creation time, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Meta, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+metaColumns+` FROM diffs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, max(opts.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("listing diffs: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Lookup returns the metadata of diff id. It wraps ErrNotFound when no
// such diff exists.
func (s *Store) Lookup(ctx context.Context, id string) (Meta, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+metaColumns+` FROM diffs WHERE id = ?`, id)
	m, err := scanMeta(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Meta{}, fmt.Errorf("diff %s: %w", id, ErrNotFound)
		}
		return Meta{}, fmt.Errorf("looking up diff %s: %w", id, err)
	}
	return m, nil
}

// Get returns the diff with the given id, records included. It wraps
// ErrNotFound when no such diff exists.
func (s *Store) Get(ctx context.Context, id string) (*Diff, error) {
	var normJSON, profileJSON string
	var diagJSON sql.NullString
	row := s.db.QueryRowContext(ctx,
		`SELECT `+metaColumns+`, normalization, profile_json, diagnostics FROM diffs WHERE id = ?`, id)
	m, err := scanMeta(row, &normJSON, &profileJSON, &diagJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("diff %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("looking up diff %s: %w", id, err)
	}

	d := &Diff{Meta: m}
	d.Result.Summary = m.Summary
	if err := json.Unmarshal([]byte(normJSON), &d.Result.Normalization); err != nil {
		return nil, fmt.Errorf("decoding normalization of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(profileJSON), &d.Result.Profile); err != nil {
		return nil, fmt.Errorf("decoding profile of %s: %w", id, err)
	}
	if diagJSON.Valid && diagJSON.String != "" && diagJSON.String != "null" {
		if err := json.Unmarshal([]byte(diagJSON.String), &d.Result.Diagnostics); err != nil {
			return nil, fmt.Errorf("decoding diagnostics of %s: %w", id, err)
		}
	}

	recs, err := s.Records(ctx, id, RecordQuery{Limit: -1})
	if err != nil {
		return nil, err
	}
	d.Result.Records = recs
	return d, nil
}

// Records returns the records of diff id matching q, in result order.
func (s *Store) Records(ctx context.Context, id string, q RecordQuery) ([]types.DiffRecord, error) {
	var (
		qb   strings.Builder
		args = []any{id}
	)
	qb.WriteString(`SELECT record FROM diff_records WHERE diff_id = ?`)
	if q.ChangeType != "" {
		qb.WriteString(` AND change_type = ?`)
		args = append(args, string(q.ChangeType))
	}
	if q.EntityType != "" {
		qb.WriteString(` AND entity_type = ?`)
		args = append(args, string(q.EntityType))
	}
	if q.Layer != "" {
		qb.WriteString(` AND layer = ?`)
		args = append(args, q.Layer)
	}
	if q.EntityID != "" {
		qb.WriteString(` AND entity_id = ?`)
		args = append(args, q.EntityID)
	}
	qb.WriteString(` ORDER BY seq`)

	limit := q.Limit
	if limit == 0 {
		limit = s.maxResults
	}
	if limit > 0 {
		qb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, limit, max(q.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records of %s: %w", id, err)
	}
	defer rows.Close()

	recs := []types.DiffRecord{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var rec types.DiffRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding record of %s: %w", id, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
