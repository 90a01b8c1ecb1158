package validation

import (
	"strings"
	"testing"
)

func TestValidateRange(t *testing.T) {
	members := Range{Min: 250, Max: 400}

	tests := []struct {
		name       string
		value      float64
		r          Range
		expectWarn bool
	}{
		{name: "Inside range", value: 325, r: members},
		{name: "Lower bound inclusive", value: 250, r: members},
		{name: "Upper bound inclusive", value: 400, r: members},
		{name: "Below range", value: 249, r: members, expectWarn: true},
		{name: "Above range", value: 401, r: members, expectWarn: true},
		{name: "Unset range never warns", value: -5, r: Range{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateRange("members", tt.value, tt.r)
			if tt.expectWarn && warning == "" {
				t.Errorf("ValidateRange(%v) expected warning but got none", tt.value)
			}
			if !tt.expectWarn && warning != "" {
				t.Errorf("ValidateRange(%v) unexpected warning: %s", tt.value, warning)
			}
		})
	}
}

func TestValidateRangesPrefixesOwner(t *testing.T) {
	checks := []RangeCheck{
		{Label: "bond term", Value: 20, Range: Range{Min: 5, Max: 15}},
		{Label: "bond rate", Value: 5.5, Range: Range{Min: 3, Max: 8}},
		{Label: "commercial term", Value: 5, Range: Range{Min: 10, Max: 30}},
	}

	warnings := ValidateRanges("baseline", checks)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
	for _, warning := range warnings {
		if !strings.HasPrefix(warning, "Scenario 'baseline': ") {
			t.Errorf("warning missing owner prefix: %s", warning)
		}
	}

	if got := ValidateRanges("", checks[:1]); len(got) != 1 || strings.HasPrefix(got[0], "Scenario") {
		t.Errorf("expected unprefixed warning, got %v", got)
	}
}
