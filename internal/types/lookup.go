package types

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// lookup finds a key in obj, first exactly and then case-insensitively
func lookup(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// FirstString returns the first non-blank string value found under any of the
// given keys, in key order. Numbers and booleans are rendered as text.
func FirstString(obj map[string]any, keys ...string) string {
	if obj == nil {
		return ""
	}
	for _, key := range keys {
		v, ok := lookup(obj, key)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(ToString(v)); s != "" {
			return s
		}
	}
	return ""
}

// FirstArray returns the first array value found under any of the given keys
func FirstArray(obj map[string]any, keys ...string) []any {
	if obj == nil {
		return nil
	}
	for _, key := range keys {
		if v, ok := lookup(obj, key); ok {
			if arr, ok := v.([]any); ok {
				return arr
			}
		}
	}
	return nil
}

// FirstObject returns the first object value found under any of the given keys
func FirstObject(obj map[string]any, keys ...string) map[string]any {
	if obj == nil {
		return nil
	}
	for _, key := range keys {
		if v, ok := lookup(obj, key); ok {
			if m, ok := v.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// FindArray looks for an array under the given keys at the top level of obj
// and then one level below it. Nested objects are visited in sorted key order.
func FindArray(obj map[string]any, keys ...string) []any {
	if arr := FirstArray(obj, keys...); arr != nil {
		return arr
	}
	names := make([]string, 0, len(obj))
	for k := range obj {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		if nested, ok := obj[name].(map[string]any); ok {
			if arr := FirstArray(nested, keys...); arr != nil {
				return arr
			}
		}
	}
	return nil
}

// ToString renders a decoded JSON scalar as text. Objects and arrays are
// rendered as compact JSON.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
