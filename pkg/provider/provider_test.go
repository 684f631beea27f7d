package provider

import "testing"

func TestConstantSample(t *testing.T) {
	c := NewConstant(42.5)
	if got := c.Sample(); got != 42.5 {
		t.Fatalf("Sample() = %v, want 42.5", got)
	}
	if got := c.SampleInt(); got != 42 {
		t.Fatalf("SampleInt() = %v, want 42 (truncated)", got)
	}
}

func TestDeterminismSameSeedSameSequence(t *testing.T) {
	a := NewGaussian(7, 100, 10)
	b := NewGaussian(7, 100, 10)
	for i := 0; i < 50; i++ {
		av, bv := a.Sample(), b.Sample()
		if av != bv {
			t.Fatalf("sample %d diverged: %v != %v", i, av, bv)
		}
	}
}

func TestGaussianClampedNonNegative(t *testing.T) {
	g := NewGaussian(1, -1000, 0.001)
	for i := 0; i < 100; i++ {
		if v := g.Sample(); v < 0 {
			t.Fatalf("Sample() = %v, want >= 0", v)
		}
	}
}

func TestExponentialOffset(t *testing.T) {
	e := NewExponential(3, 2, 1)
	for i := 0; i < 100; i++ {
		if v := e.Sample(); v < 1 {
			t.Fatalf("Sample() = %v, want >= offset 1", v)
		}
	}
}

func TestGaussianWithSpikeStaysNonNegative(t *testing.T) {
	g := NewGaussianWithSpike(9, 0, 0.01, 1.0, 5, 3.0)
	for i := 0; i < 200; i++ {
		if v := g.Sample(); v < 0 {
			t.Fatalf("Sample() = %v, want >= 0", v)
		}
	}
}

func TestGaussianWithSpikeDifferentSeedsDiverge(t *testing.T) {
	a := NewGaussianWithSpike(1, 10, 1, 0.5, 10, 2)
	b := NewGaussianWithSpike(2, 10, 1, 0.5, 10, 2)
	same := true
	for i := 0; i < 50; i++ {
		if a.Sample() != b.Sample() {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different seeds to diverge over 50 samples")
	}
}
