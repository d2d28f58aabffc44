package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes a partition's records as an indented JSON array.
// An empty set encodes to "[]" so that decode round-trips cleanly.
func Encode[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode partition: %w", err)
	}
	return data, nil
}

// Decode parses a partition blob back into records. Empty or missing bytes
// yield an empty slice, never an error. Unknown fields are rejected so that
// stray data cannot pass through the store boundary silently.
func Decode[T any](data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []T
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPartition, err)
	}
	return records, nil
}

// decodeRows parses a partition blob into untyped rows for quality sampling.
func decodeRows(data []byte) ([]map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPartition, err)
	}
	return rows, nil
}
