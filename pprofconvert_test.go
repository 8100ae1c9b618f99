package mtrace

import (
	"testing"
	"time"
)

func TestBuildProfileAccumulatesSelfTime(t *testing.T) {
	events := []Event{
		{Kind: KindEntry, ThreadID: 1, Timestamp: 0, Address: 0x1000},
		{Kind: KindExit, ThreadID: 1, Timestamp: 100, Address: 0x1000},
		{Kind: KindEntry, ThreadID: 1, Timestamp: 200, Address: 0x1000},
		{Kind: KindExit, ThreadID: 1, Timestamp: 350, Address: 0x1000},
	}

	prof := BuildProfile(events, time.Unix(0, 0), 0)

	if len(prof.Sample) != 1 {
		t.Fatalf("got %d samples, want 1 distinct address", len(prof.Sample))
	}

	sample := prof.Sample[0]
	if sample.Value[0] != 2 {
		t.Errorf("call count = %d, want 2", sample.Value[0])
	}
	if sample.Value[1] != 250 {
		t.Errorf("self nanoseconds = %d, want 250", sample.Value[1])
	}
}

func TestBuildProfileIgnoresUnmatchedExit(t *testing.T) {
	events := []Event{
		{Kind: KindExit, ThreadID: 1, Timestamp: 10, Address: 0x2000},
	}
	prof := BuildProfile(events, time.Unix(0, 0), 0)
	if len(prof.Sample) != 0 {
		t.Fatalf("got %d samples, want 0 for an exit with no matching entry", len(prof.Sample))
	}
}
