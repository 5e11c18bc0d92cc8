package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Put inserts or replaces the record at (kind, id) and returns its new
// version. A new record starts at version 1; every replacement adds one.
func (t *Tx) Put(ctx context.Context, kind, id string, payload any) (int64, error) {
	kind, id, err := normalizeKey(kind, id)
	if err != nil {
		return 0, fmt.Errorf("put: %w", err)
	}
	data, err := marshalPayload(payload)
	if err != nil {
		return 0, fmt.Errorf("put %s/%s: %w", kind, id, err)
	}

	var version int64
	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO records (kind, id, payload, version)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(kind, id) DO UPDATE SET
			payload = excluded.payload,
			version = records.version + 1
		RETURNING version
	`, kind, id, data).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("put %s/%s: %w", kind, id, err)
	}
	return version, nil
}

// PutIfVersion replaces the record only if its stored version equals
// expected. An expected version of 0 means the record must not exist yet.
//
// Returns ErrVersionConflict when the check fails.
func (t *Tx) PutIfVersion(ctx context.Context, kind, id string, payload any, expected int64) (int64, error) {
	kind, id, err := normalizeKey(kind, id)
	if err != nil {
		return 0, fmt.Errorf("put if version: %w", err)
	}

	current, err := t.version(ctx, kind, id)
	if err != nil {
		return 0, fmt.Errorf("put if version %s/%s: %w", kind, id, err)
	}
	if current != expected {
		return 0, fmt.Errorf("put if version %s/%s: have %d, want %d: %w",
			kind, id, current, expected, ErrVersionConflict)
	}

	return t.Put(ctx, kind, id, payload)
}

// Delete removes the record at (kind, id).
// Returns false if there was nothing to delete.
func (t *Tx) Delete(ctx context.Context, kind, id string) (bool, error) {
	kind, id, err := normalizeKey(kind, id)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, `
		DELETE FROM records WHERE kind = ? AND id = ?
	`, kind, id)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", kind, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: rows affected: %w", kind, id, err)
	}
	return n > 0, nil
}

// version returns the stored version, or 0 if the record does not exist.
func (t *Tx) version(ctx context.Context, kind, id string) (int64, error) {
	var v int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT version FROM records WHERE kind = ? AND id = ?
	`, kind, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}
