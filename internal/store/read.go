package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is one stored document.
type Record struct {
	Kind    string
	ID      string
	Payload json.RawMessage
	Version int64
}

// Decode unmarshals the payload into v.
func (r Record) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", r.Kind, r.ID, err)
	}
	return nil
}

// Get retrieves a single record.
// Returns ErrNotFound if no record exists for (kind, id).
func (t *Tx) Get(ctx context.Context, kind, id string) (Record, error) {
	kind, id, err := normalizeKey(kind, id)
	if err != nil {
		return Record{}, fmt.Errorf("get: %w", err)
	}

	row := t.tx.QueryRowContext(ctx, `
		SELECT kind, id, payload, version
		FROM records
		WHERE kind = ? AND id = ?
	`, kind, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s/%s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", kind, id, err)
	}
	return rec, nil
}

// List returns every record of a kind ordered by id (binary collation).
// Returns an empty slice (not nil) if there are none.
func (t *Tx) List(ctx context.Context, kind string) ([]Record, error) {
	kind, _, err := normalizeKey(kind, "-")
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT kind, id, payload, version
		FROM records
		WHERE kind = ?
		ORDER BY id COLLATE BINARY ASC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: iterate: %w", kind, err)
	}
	return records, nil
}

// Count returns the number of records of a kind.
func (t *Tx) Count(ctx context.Context, kind string) (int, error) {
	kind, _, err := normalizeKey(kind, "-")
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	var n int
	if err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records WHERE kind = ?
	`, kind).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// Kinds returns the distinct record kinds in binary order.
func (t *Tx) Kinds(ctx context.Context) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT DISTINCT kind FROM records ORDER BY kind COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("kinds: %w", err)
	}
	defer rows.Close()

	kinds := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kinds: scan: %w", err)
		}
		kinds = append(kinds, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kinds: iterate: %w", err)
	}
	return kinds, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var rec Record
	var payload string
	if err := s.Scan(&rec.Kind, &rec.ID, &payload, &rec.Version); err != nil {
		return Record{}, err
	}
	rec.Payload = json.RawMessage(payload)
	return rec, nil
}
