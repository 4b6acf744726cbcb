package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	durations := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond}
	for _, d := range durations {
		tracker.Observe(d)
	}

	if tracker.Count() != len(durations) {
		t.Fatalf("expected count %d, got %d", len(durations), tracker.Count())
	}
	if p95 := tracker.Percentile(95); p95 < 40*time.Millisecond {
		t.Fatalf("expected percentile >= 40ms, got %v", p95)
	}
	if p0 := tracker.Percentile(0); p0 != 10*time.Millisecond {
		t.Fatalf("expected 0th percentile 10ms, got %v", p0)
	}
	if p100 := tracker.Percentile(100); p100 != 50*time.Millisecond {
		t.Fatalf("expected 100th percentile 50ms, got %v", p100)
	}
}

func TestLatencyTrackerWindowEviction(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if tracker.Count() != 3 {
		t.Fatalf("expected window size 3, got %d", tracker.Count())
	}
	// Only the last three observations (8, 9, 10ms) remain.
	if min := tracker.Percentile(0); min != 8*time.Millisecond {
		t.Fatalf("expected oldest surviving sample 8ms, got %v", min)
	}
}

func TestLatencyTrackerEmptyAndNegative(t *testing.T) {
	tracker := NewLatencyTracker(4)
	if got := tracker.Percentile(95); got != 0 {
		t.Fatalf("empty tracker percentile = %v, want 0", got)
	}

	tracker.Observe(-5 * time.Millisecond)
	if got := tracker.Percentile(100); got != 0 {
		t.Fatalf("negative samples should clamp to zero, got %v", got)
	}
}
