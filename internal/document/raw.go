package document

import "math"

// Raw is a decoded-but-unvalidated JSON object, as posted by the admin UI.
// Merge reads through these helpers so a wrong-typed field degrades to the
// fallback value instead of failing the whole request.
type Raw = map[string]any

func rawObject(value any) (Raw, bool) {
	m, ok := value.(map[string]any)
	return m, ok
}

// field returns the raw value under key and whether the key was present at
// all. Presence matters: an explicitly posted empty string overrides the
// fallback, an absent key does not.
func rawField(m Raw, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func rawChild(m Raw, key string) Raw {
	v, ok := rawField(m, key)
	if !ok {
		return nil
	}
	child, _ := rawObject(v)
	return child
}

// rawString resolves a string field: present and well-typed wins, otherwise
// the fallback is kept.
func rawString(m Raw, key, fallback string) string {
	v, ok := rawField(m, key)
	if !ok {
		return fallback
	}
	if s, isString := v.(string); isString {
		return sanitizeString(s)
	}
	return fallback
}

// rawInt resolves an integer field. JSON numbers decode as float64; only
// integral values qualify, anything else reports !ok.
func rawInt(m Raw, key string) (int, bool) {
	v, present := rawField(m, key)
	if !present {
		return 0, false
	}
	f, isNumber := v.(float64)
	if !isNumber || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// rawStringArray resolves an array-of-strings field; non-string entries are
// skipped, a non-array reports !ok.
func rawStringArray(m Raw, key string) ([]string, bool) {
	v, present := rawField(m, key)
	if !present {
		return nil, false
	}
	items, isArray := v.([]any)
	if !isArray {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, isString := item.(string); isString {
			out = append(out, s)
		}
	}
	return out, true
}
