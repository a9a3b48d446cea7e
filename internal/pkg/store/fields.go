package store

import (
	"fmt"
	"time"
)

// Field extraction helpers for entity mappers. A wrong-typed value is a
// mapping error (the record gets skipped upstream); an absent optional
// field yields the zero value.

// StringField returns a required string field.
func (d Document) StringField(key string) (string, error) {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	return s, nil
}

// OptStringField returns an optional string field, "" when absent.
func (d Document) OptStringField(key string) (string, error) {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", key, v)
	}
	return s, nil
}

// IntField returns an optional integer field, 0 when absent. Backends
// deliver numbers as int64 or float64 depending on the driver.
func (d Document) IntField(key string) (int64, error) {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("field %q: expected number, got %T", key, v)
	}
}

// OptFloatField returns an optional float field as a pointer, nil when
// absent.
func (d Document) OptFloatField(key string) (*float64, error) {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		return &n, nil
	case int64:
		f := float64(n)
		return &f, nil
	default:
		return nil, fmt.Errorf("field %q: expected number, got %T", key, v)
	}
}

// TimeField returns an optional timestamp field; the zero time when absent
// (the server stamp may not have resolved yet on a fresh insert).
func (d Document) TimeField(key string) (time.Time, error) {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q: expected timestamp, got %T", key, v)
	}
	return t, nil
}

// StringSliceField returns an optional list-of-strings field, empty when
// absent.
func (d Document) StringSliceField(key string) ([]string, error) {
	v, ok := d.Data[key]
	if !ok || v == nil {
		return []string{}, nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: expected string element, got %T", key, e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q: expected list, got %T", key, v)
	}
}
