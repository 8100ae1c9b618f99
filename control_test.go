package mtrace

import (
	"sync/atomic"
	"testing"
)

// resetControlState lets each test start from a clean slate despite
// Init's process-wide once-only guard; production code never needs
// this, only tests that want independent Init calls.
func resetControlState(t *testing.T) {
	t.Helper()
	atomic.StoreUint32(&initialized, 0)
	atomic.StoreUint32(&enabled, 0)
	activeBuffer.Store(nil)
}

func TestInitRejectsZeroCapacity(t *testing.T) {
	resetControlState(t)
	if _, err := Init(0, false); err == nil {
		t.Fatal("Init(0, ...) must fail")
	}
}

func TestInitTwiceIsMisuse(t *testing.T) {
	resetControlState(t)
	if _, err := Init(16, false); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	_, err := Init(16, false)
	if err == nil {
		t.Fatal("second Init must fail")
	}
	if _, ok := err.(*MisuseError); !ok {
		t.Fatalf("error type = %T, want *MisuseError", err)
	}
}

func TestEnableDisableToggleFlag(t *testing.T) {
	resetControlState(t)
	if isEnabled() {
		t.Fatal("must start disabled")
	}
	Enable()
	if !isEnabled() {
		t.Fatal("Enable must set the flag")
	}
	Disable()
	if isEnabled() {
		t.Fatal("Disable must clear the flag")
	}
}

func TestDisabledTracerRecordsNothing(t *testing.T) {
	resetControlState(t)
	h, err := Init(64, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	SimulateNestedCalls(3)

	events := h.buffer.snapshot()
	if len(events) != 0 {
		t.Fatalf("got %d events while disabled, want 0", len(events))
	}
}

func TestEnabledTracerRecordsEntryExitPairs(t *testing.T) {
	resetControlState(t)
	h, err := Init(64, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	Enable()

	SimulateNestedCalls(3)

	events := h.buffer.snapshot()
	if len(events) != 6 {
		t.Fatalf("got %d events, want 6 (3 entries + 3 exits)", len(events))
	}

	var entries, exits int
	for _, e := range events {
		switch e.Kind {
		case KindEntry:
			entries++
		case KindExit:
			exits++
		}
	}
	if entries != 3 || exits != 3 {
		t.Fatalf("entries=%d exits=%d, want 3 and 3", entries, exits)
	}
}

func TestDumpFullUftraceForceDisables(t *testing.T) {
	resetControlState(t)
	h, err := Init(64, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	Enable()

	dir := t.TempDir()
	if err := h.DumpFullUftrace(dir, "demo", false); err != nil {
		t.Fatalf("DumpFullUftrace: %v", err)
	}

	if isEnabled() {
		t.Fatal("DumpFullUftrace must force-disable tracing")
	}
}
