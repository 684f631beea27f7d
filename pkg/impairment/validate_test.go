package impairment

import (
	"testing"

	"netimpair/pkg/provider"
)

func TestValidatorRejectsNonPositiveUpdateEvery(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(0, testDims()); err == nil {
		t.Fatalf("expected error for update_every = 0")
	}
	if !v.HasErrors() {
		t.Fatalf("expected HasErrors() true")
	}
}

func TestValidatorRejectsMissingProvider(t *testing.T) {
	dims := testDims()
	dims.Latency = nil
	v := NewValidator()
	if err := v.Validate(UpdateEvery, dims); err == nil {
		t.Fatalf("expected error for missing latency provider")
	}
}

func TestValidatorWarnsOnZeroConstantBandwidth(t *testing.T) {
	dims := testDims()
	dims.Bandwidth = provider.NewConstant(0)
	v := NewValidator()
	if err := v.Validate(UpdateEvery, dims); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.HasWarnings() {
		t.Fatalf("expected warning for zero bandwidth")
	}
}

func TestValidatorPassesWellFormedScenario(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(UpdateEvery, testDims()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.HasErrors() || v.HasWarnings() {
		t.Fatalf("unexpected errors/warnings: %s", v.Report())
	}
}
