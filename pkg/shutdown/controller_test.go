package shutdown

import (
	"errors"
	"testing"
	"time"
)

func TestTriggerRunsActionsInOrder(t *testing.T) {
	c := New()
	var order []string
	c.OnShutdown("first", func() error {
		order = append(order, "first")
		return nil
	})
	c.OnShutdown("second", func() error {
		order = append(order, "second")
		return errors.New("boom")
	})

	c.Trigger("test")

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() never closed")
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected action order: %v", order)
	}

	log := c.AuditLog()
	if len(log) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(log))
	}
	if !log[0].Success {
		t.Fatalf("expected first action to succeed")
	}
	if log[1].Success || log[1].Error == nil {
		t.Fatalf("expected second action to be recorded as failed")
	}
}

func TestTriggerIsIdempotent(t *testing.T) {
	c := New()
	calls := 0
	c.OnShutdown("once", func() error {
		calls++
		return nil
	})

	c.Trigger("first")
	c.Trigger("second")

	if calls != 1 {
		t.Fatalf("expected action to run exactly once, got %d", calls)
	}
}
