package reporting

import (
	"strings"
	"testing"
	"time"
)

func TestResolveRunDirPlainProjectName(t *testing.T) {
	got := ResolveRunDir("./Runs", "acme", time.Unix(0, 0))
	if got != "Runs/acme" {
		t.Fatalf("ResolveRunDir() = %q, want Runs/acme", got)
	}
}

func TestResolveRunDirTestProjectIsTimestamped(t *testing.T) {
	now := time.Unix(0, 123456789)
	got := ResolveRunDir("./Runs", "Test", now)
	if !strings.Contains(got, "Test-123456789") {
		t.Fatalf("ResolveRunDir() = %q, want it to contain Test-123456789", got)
	}
}
