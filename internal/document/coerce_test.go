package document

import "testing"

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		fallback bool
		want     bool
	}{
		{"bool true", true, false, true},
		{"bool false", false, true, false},
		{"float nonzero", float64(1), false, true},
		{"float zero", float64(0), true, false},
		{"int nonzero", 3, false, true},
		{"int zero", 0, true, false},
		{"string true", "true", false, true},
		{"string TRUE", "TRUE", false, true},
		{"string one", "1", false, true},
		{"string on", "on", false, true},
		{"string yes", "yes", false, true},
		{"string false", "false", true, false},
		{"string zero", "0", true, false},
		{"string off", "off", true, false},
		{"string no", "no", true, false},
		{"string empty", "", true, false},
		{"string padded", "  true  ", false, true},
		{"string unrecognized keeps fallback", "maybe", true, true},
		{"string unrecognized keeps false fallback", "maybe", false, false},
		{"nil keeps fallback", nil, true, true},
		{"object keeps fallback", map[string]any{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceBool(tt.value, tt.fallback); got != tt.want {
				t.Errorf("CoerceBool(%v, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
			}
		})
	}
}
