package utils

import (
	"sort"
	"sync"
	"time"
)

// defaultLatencyWindow covers roughly fifty of the service layer's 20-sample
// p95 reporting intervals of question traffic.
const defaultLatencyWindow = 1024

// LatencyTracker keeps a sliding window of question-handling latencies in a
// fixed ring and computes percentiles on demand.
type LatencyTracker struct {
	mu    sync.Mutex
	ring  []time.Duration
	next  int
	count int
}

// NewLatencyTracker creates a tracker over the last windowSize questions.
func NewLatencyTracker(windowSize int) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = defaultLatencyWindow
	}
	return &LatencyTracker{ring: make([]time.Duration, windowSize)}
}

// Observe records one question's handling time, evicting the oldest sample
// once the window is full.
func (l *LatencyTracker) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring[l.next] = d
	l.next = (l.next + 1) % len(l.ring)
	if l.count < len(l.ring) {
		l.count++
	}
}

// Percentile returns the p-th percentile (0-100) of the current window,
// zero when no questions were observed yet.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.Lock()
	sorted := make([]time.Duration, l.count)
	copy(sorted, l.ring[:l.count])
	l.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return sorted[int(p/100.0*float64(len(sorted)-1))]
}

// Count returns the number of samples currently in the window.
func (l *LatencyTracker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
