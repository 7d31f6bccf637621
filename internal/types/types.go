package types

import (
	"strings"
)

// StringPtr converts a string to a pointer to a string
func StringPtr(s string) *string {
	return &s
}

// SafeString returns a safe string from a pointer to a string
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IntPtr converts an int to a pointer to an int
func IntPtr(i int) *int {
	return &i
}

// Int64Ptr converts an int64 to a pointer to an int64
func Int64Ptr(i int64) *int64 {
	return &i
}

// BoolPtr converts a bool to a pointer to a bool
func BoolPtr(b bool) *bool {
	return &b
}

// NormalizeList splits a free-text list on ; , | 、 and whitespace, drops
// case-insensitive duplicates keeping the first spelling and joins with ";".
func NormalizeList(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ';', ',', '|', '、', '，', '；':
			return true
		}
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　'
	})

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ";")
}
