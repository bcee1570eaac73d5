// Package structured pulls JSON objects out of free-form model output.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrNoObject = errors.New("NO_STRUCTURED_OBJECT")

// ExtractFirstObject returns the first balanced top-level {...} in text.
// Braces inside JSON string literals are ignored.
func ExtractFirstObject(text string) ([]byte, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}
	return nil, ErrNoObject
}

// Decode extracts and parses the first object in text.
func Decode(text string) (map[string]interface{}, error) {
	raw, err := ExtractFirstObject(text)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoObject, err)
	}
	return out, nil
}

// Float reads a positive finite number at key. Numeric strings such as "9.5kg" are accepted.
func Float(m map[string]interface{}, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return def
	}
	return f
}

// OptionalFloat is Float without a default; ok is false when the value is unusable.
func OptionalFloat(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return 0, false
	}
	return f, true
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		end := 0
		for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
			end++
		}
		parsed, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String reads a non-blank string at key.
func String(m map[string]interface{}, key, def string) string {
	s, ok := m[key].(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// Pair reads a two-element numeric array such as [lo, hi].
func Pair(m map[string]interface{}, key string) (float64, float64, bool) {
	arr, ok := m[key].([]interface{})
	if !ok || len(arr) != 2 {
		return 0, 0, false
	}
	lo, ok1 := toFloat(arr[0])
	hi, ok2 := toFloat(arr[1])
	if !ok1 || !ok2 || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// Object reads a nested object at key.
func Object(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	o, ok := m[key].(map[string]interface{})
	return o, ok
}
