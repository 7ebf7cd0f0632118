package document

import (
	"math"
	"strings"
)

// CoerceBool converts arbitrary JSON values into a bool. Admin form widgets
// historically submitted booleans as "true"/"1"/"on" strings or numbers, so
// the conversion must be total: any value outside the recognized set falls
// back to the supplied default instead of guessing by truthiness.
func CoerceBool(value any, fallback bool) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return !math.IsNaN(v) && v != 0
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "on", "yes":
			return true
		case "false", "0", "off", "no", "":
			return false
		}
		return fallback
	}
	return fallback
}

// sanitizeString trims a raw JSON value when it is a string; any other type
// yields "".
func sanitizeString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// sanitizeStringSlice keeps the trimmed non-empty string entries of a raw
// JSON array; a non-array yields an empty slice.
func sanitizeStringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := sanitizeString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// trimStrings applies TrimSpace and drops empties from a typed slice.
func trimStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
