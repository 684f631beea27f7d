package impairment

import (
	"fmt"
	"strings"

	"netimpair/pkg/provider"
)

// Validator accumulates non-fatal Warnings and fatal Errors found while
// checking a scenario configuration before a run starts.
type Validator struct {
	Warnings []string
	Errors   []string
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

// Validate checks updateEvery and dims for startup-fatal problems and
// records non-fatal warnings about dimensions that are technically
// valid but are likely to surprise an operator. The only such check is
// a Constant bandwidth provider at or below zero, which leaves packets
// queued indefinitely on the on-deck slot rather than being an error;
// other bandwidth provider variants are not inspected.
func (v *Validator) Validate(updateEvery float64, dims Dimensions) error {
	v.Warnings = v.Warnings[:0]
	v.Errors = v.Errors[:0]

	if updateEvery <= 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("update_every must be > 0, got %v", updateEvery))
	}

	if dims.Bandwidth == nil {
		v.Errors = append(v.Errors, "bandwidth provider is required")
	}
	if dims.Latency == nil {
		v.Errors = append(v.Errors, "latency provider is required")
	}
	if dims.Loss == nil {
		v.Errors = append(v.Errors, "loss provider is required")
	}
	if dims.Corruption == nil {
		v.Errors = append(v.Errors, "corruption provider is required")
	}
	if dims.Multiplicity == nil {
		v.Errors = append(v.Errors, "corruption multiplicity provider is required")
	}

	if len(v.Errors) > 0 {
		return fmt.Errorf("impairment: validation failed with %d errors", len(v.Errors))
	}

	// Only a Constant bandwidth can be checked without consuming a
	// sample from its PRNG stream, which would desynchronize it from
	// the draw the pipeline takes for its first real reading.
	if c, ok := dims.Bandwidth.(*provider.Constant); ok && c.Value <= 0 {
		v.Warnings = append(v.Warnings, "bandwidth provider is constant 0 or below; packets will queue indefinitely on the on-deck slot")
	}

	return nil
}

// HasWarnings reports whether the last Validate call produced warnings.
func (v *Validator) HasWarnings() bool { return len(v.Warnings) > 0 }

// HasErrors reports whether the last Validate call produced errors.
func (v *Validator) HasErrors() bool { return len(v.Errors) > 0 }

// Report renders accumulated errors and warnings as operator-facing text.
func (v *Validator) Report() string {
	var sb strings.Builder
	if len(v.Errors) > 0 {
		sb.WriteString("ERRORS:\n")
		for _, e := range v.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", e))
		}
	}
	if len(v.Warnings) > 0 {
		sb.WriteString("WARNINGS:\n")
		for _, w := range v.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}
	return sb.String()
}
