package mtrace

import (
	"sync"
	"testing"
)

func TestTwoThreadsGetDistinctThreadIDs(t *testing.T) {
	resetControlState(t)
	h, err := Init(256, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	Enable()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SimulateNestedCalls(4)
		}()
	}
	wg.Wait()

	events := h.buffer.snapshot()
	seen := map[uint64]bool{}
	for _, e := range events {
		seen[e.ThreadID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("observed %d distinct thread ids, want 2", len(seen))
	}
}

func TestRingModeLongRunStaysBounded(t *testing.T) {
	resetControlState(t)
	h, err := Init(32, true)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	Enable()

	for i := 0; i < 50; i++ {
		SimulateNestedCalls(1)
	}

	events := h.buffer.snapshot()
	if len(events) != 32 {
		t.Fatalf("snapshot len = %d, want 32 (ring buffer must stay at capacity)", len(events))
	}
}

func TestMidRunDisableEnableStopsAndResumesRecording(t *testing.T) {
	resetControlState(t)
	h, err := Init(256, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	Enable()
	SimulateNestedCalls(2)
	afterFirst := len(h.buffer.snapshot())

	Disable()
	SimulateNestedCalls(2)
	afterDisabled := len(h.buffer.snapshot())
	if afterDisabled != afterFirst {
		t.Fatalf("events grew from %d to %d while disabled", afterFirst, afterDisabled)
	}

	Enable()
	SimulateNestedCalls(2)
	afterSecond := len(h.buffer.snapshot())
	if afterSecond != 2*afterFirst {
		t.Fatalf("events after resuming = %d, want %d", afterSecond, 2*afterFirst)
	}
}
