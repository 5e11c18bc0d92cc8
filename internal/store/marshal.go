package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// marshalPayload converts a payload to JSON TEXT for storage.
//
// Raw JSON ([]byte, json.RawMessage) is stored as-is after validation.
// Everything else goes through json.Encoder with HTML escaping disabled,
// so "<" and "&" in memos survive unchanged.
func marshalPayload(v any) (string, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		return validRaw(raw)
	case []byte:
		return validRaw(raw)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder appends a newline; strip it for consistent storage.
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func validRaw(raw []byte) (string, error) {
	if !json.Valid(raw) {
		return "", fmt.Errorf("marshal payload: invalid JSON")
	}
	return string(raw), nil
}

// normalizeKey trims and NFC-normalizes a record key.
func normalizeKey(kind, id string) (string, string, error) {
	kind = norm.NFC.String(strings.TrimSpace(kind))
	id = norm.NFC.String(strings.TrimSpace(id))
	if kind == "" {
		return "", "", fmt.Errorf("%w: empty kind", ErrInvalidKey)
	}
	if id == "" {
		return "", "", fmt.Errorf("%w: empty id", ErrInvalidKey)
	}
	return kind, id, nil
}
