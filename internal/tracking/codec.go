package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyKey is returned when a record has no primary-key values.
var ErrEmptyKey = errors.New("tracking: key values must not be empty")

// EncodeKey serializes primary-key values. Map keys are emitted in sorted
// order, so equal keys always encode to the same text.
func EncodeKey(key Values) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptyKey
	}
	b, err := json.Marshal(map[string]Value(key))
	if err != nil {
		return "", fmt.Errorf("encode key values: %w", err)
	}
	return string(b), nil
}

// EncodeValues serializes old/new values. An empty mapping encodes to nil,
// never to "{}".
func EncodeValues(vs Values) (*string, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]Value(vs))
	if err != nil {
		return nil, fmt.Errorf("encode values: %w", err)
	}
	s := string(b)
	return &s, nil
}

// DecodeValues is the inverse of EncodeValues. nil, "" and "null" decode to a
// nil mapping.
func DecodeValues(s *string) (Values, error) {
	if s == nil || *s == "" || *s == "null" {
		return nil, nil
	}
	var out map[string]Value
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return Values(out), nil
}

// EncodeColumns serializes the ordered changed-field list; empty encodes to nil.
func EncodeColumns(cols []string) (*string, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(cols)
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}
	s := string(b)
	return &s, nil
}

// DecodeColumns returns an empty, non-nil list for a missing column set.
func DecodeColumns(s *string) ([]string, error) {
	if s == nil || *s == "" || *s == "null" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*s), &out); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return out, nil
}
