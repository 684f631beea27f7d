package impairment

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"netimpair/pkg/provider"
)

func testDims() Dimensions {
	return Dimensions{
		Bandwidth:    provider.NewConstant(1000),
		Latency:      provider.NewConstant(0.01),
		Loss:         provider.NewConstant(0),
		Corruption:   provider.NewConstant(0),
		Multiplicity: provider.NewConstant(0),
	}
}

func TestNewStateFailsIfDirExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewState(dir, UpdateEvery, testDims(), time.Now()); err == nil {
		t.Fatalf("expected error when run directory already exists")
	}
}

func TestUpdateNoOpBeforeStarted(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	now := time.Now()
	s, err := NewState(dir, UpdateEvery, testDims(), now)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	later := now.Add(10 * time.Second)
	if err := s.Update(false, later); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "data.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := countLines(data)
	if lines != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", lines)
	}
}

func TestUpdateAppendsRowAfterInterval(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	now := time.Now()
	s, err := NewState(dir, UpdateEvery, testDims(), now)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	later := now.Add(time.Second)
	if err := s.Update(true, later); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "data.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := countLines(data); lines != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", lines)
	}
}

func TestLossAndCorruptionClampedAtRead(t *testing.T) {
	dims := testDims()
	dims.Loss = provider.NewConstant(1.5)
	dims.Corruption = provider.NewConstant(-0.5)

	dir := filepath.Join(t.TempDir(), "run")
	s, err := NewState(dir, UpdateEvery, dims, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if got := s.Loss(); got != 1 {
		t.Fatalf("Loss() = %v, want clamped 1", got)
	}
	if got := s.CorruptionRate(); got != 0 {
		t.Fatalf("CorruptionRate() = %v, want clamped 0", got)
	}
}

func TestBuildScenarioRejectsUnknownName(t *testing.T) {
	master := rand.New(rand.NewSource(1))
	if _, err := BuildScenario("Bogus", master); err == nil {
		t.Fatalf("expected error for unknown scenario name")
	}
}

func TestBuildScenarioDeterministicForSameMasterSeed(t *testing.T) {
	m1 := rand.New(rand.NewSource(42))
	m2 := rand.New(rand.NewSource(42))

	d1, err := BuildScenario("Worst", m1)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := BuildScenario("Worst", m2)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		if d1.Bandwidth.Sample() != d2.Bandwidth.Sample() {
			t.Fatalf("bandwidth streams diverged at sample %d", i)
		}
	}
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
