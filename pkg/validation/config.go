package validation

import "fmt"

// Range is an inclusive [Min, Max] bound for a configurable value.
type Range struct {
	Min float64 `yaml:"min" json:"min" mapstructure:"min"`
	Max float64 `yaml:"max" json:"max" mapstructure:"max"`
}

// Contains reports whether value lies within the range.
func (r Range) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}

// Empty reports whether the range was left unset.
func (r Range) Empty() bool {
	return r.Min == 0 && r.Max == 0
}

// ValidateRange returns a warning when value falls outside the range. An
// unset range never warns.
func ValidateRange(label string, value float64, r Range) string {
	if r.Empty() || r.Contains(value) {
		return ""
	}
	return fmt.Sprintf("%s %g is outside the expected range [%g, %g]", label, value, r.Min, r.Max)
}

// RangeCheck pairs a labelled value with its expected range.
type RangeCheck struct {
	Label string
	Value float64
	Range Range
}

// ValidateRanges runs every check and collects the warnings, prefixing each
// with the owner (for example a scenario name) when one is given.
func ValidateRanges(owner string, checks []RangeCheck) []string {
	var warnings []string
	for _, check := range checks {
		warning := ValidateRange(check.Label, check.Value, check.Range)
		if warning == "" {
			continue
		}
		if owner != "" {
			warning = fmt.Sprintf("Scenario '%s': %s", owner, warning)
		}
		warnings = append(warnings, warning)
	}
	return warnings
}
