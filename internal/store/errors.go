package store

import "errors"

var (
	// ErrNotFound is returned when no record exists for (kind, id).
	ErrNotFound = errors.New("record not found")

	// ErrInvalidKey is returned for an empty kind or id.
	ErrInvalidKey = errors.New("invalid record key")

	// ErrVersionConflict is returned by PutIfVersion when the stored version
	// does not match the expected one.
	ErrVersionConflict = errors.New("record version conflict")
)
