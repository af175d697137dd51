package simpleembed

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawMetadata is the provider record returned by a Fetcher. Keys vary by
// provider; unknown keys are permitted and ignored.
type RawMetadata map[string]interface{}

// String returns the value for key rendered as a string.
func (m RawMetadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Int returns the value for key parsed as an integer. Values that do not
// parse yield false.
func (m RawMetadata) Int(key string) (int, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	return toInt(v)
}

// Has reports whether key is present with a non-nil value.
func (m RawMetadata) Has(key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

// Clone returns a shallow copy of the record.
func (m RawMetadata) Clone() RawMetadata {
	out := make(RawMetadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float32:
		return int(t), !math.IsNaN(float64(t))
	case float64:
		return int(t), !math.IsNaN(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}
