// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// JSONMap is a jsonb column decoded into a generic object.
type JSONMap map[string]interface{}

// Value implements driver.Valuer. A nil map is stored as SQL NULL.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal jsonb: %w", err)
	}
	*m = out
	return nil
}

// Merge returns a copy of m with every key of other applied on top.
func (m JSONMap) Merge(other JSONMap) JSONMap {
	out := make(JSONMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// String returns the value at key when it is a string.
func (m JSONMap) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the value at key as an int. Numbers decoded from JSON arrive as
// float64; values set in Go code may be any integer type.
func (m JSONMap) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// ToJSONMap converts any JSON-encodable value into a JSONMap.
func ToJSONMap(v interface{}) (JSONMap, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make(JSONMap)
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
