// Package corroborate answers "is this alert supported by abnormal
// telemetry" through a time-bucketed metric index.
package corroborate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
)

const (
	// BucketSize is the width of an index bucket.
	BucketSize = 5 * time.Minute

	// Alert lookup window relative to the alert timestamp.
	windowBefore = 15 * time.Minute
	windowAfter  = 5 * time.Minute

	patternLookback    = 24 * time.Hour
	patternMinCritical = 3
)

// Thresholds holds the per-metric abnormality thresholds.
type Thresholds struct {
	CPU     float64
	Memory  float64
	Storage float64
}

// DefaultThresholds mirrors the fleet-wide operational limits.
func DefaultThresholds() Thresholds {
	return Thresholds{CPU: 85, Memory: 80, Storage: 80}
}

type bucketKey struct {
	target string
	bucket int64
}

// Index is a time-bucketed corroboration index over metric samples plus a
// per-target history of CRITICAL alert times for the pattern fallback.
// Stateless relative to its inputs: rebuild at will, no invalidation needed.
type Index struct {
	thresholds Thresholds
	samples    map[bucketKey][]models.MetricSample
	criticals  map[string][]time.Time // ascending per target
}

// Build constructs the index in one pass over samples and alerts. Samples
// without a target or timestamp are ignored.
func Build(samples []models.MetricSample, alerts []models.Alert, thresholds Thresholds) *Index {
	idx := &Index{
		thresholds: thresholds,
		samples:    make(map[bucketKey][]models.MetricSample),
		criticals:  make(map[string][]time.Time),
	}

	for _, s := range samples {
		if s.Target == "" || s.Timestamp.IsZero() {
			continue
		}
		key := bucketKey{target: s.Target, bucket: bucketOf(s.Timestamp)}
		idx.samples[key] = append(idx.samples[key], s)
	}
	for key := range idx.samples {
		list := idx.samples[key]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	}

	for _, a := range alerts {
		if a.Severity == models.SeverityCritical && a.Valid() {
			idx.criticals[a.Target] = append(idx.criticals[a.Target], a.Timestamp)
		}
	}
	for target := range idx.criticals {
		times := idx.criticals[target]
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}

	return idx
}

// Corroborate checks one alert against the indexed telemetry. An alert with
// no support is a weaker signal, never an error.
func (idx *Index) Corroborate(alert models.Alert) models.Support {
	if !alert.Valid() {
		return models.Support{Reasons: []string{"Missing time or target"}}
	}

	windowStart := alert.Timestamp.Add(-windowBefore)
	windowEnd := alert.Timestamp.Add(windowAfter)

	var reasons []string
	for _, bucket := range relevantBuckets(alert.Timestamp) {
		for _, s := range idx.samples[bucketKey{target: alert.Target, bucket: bucket}] {
			if s.Timestamp.Before(windowStart) || s.Timestamp.After(windowEnd) {
				continue
			}
			if reason, abnormal := idx.checkSample(s); abnormal {
				reasons = append(reasons, reason)
			}
		}
	}

	if len(reasons) > 0 {
		return models.Support{Supported: true, Reasons: reasons}
	}

	// Fallback: a CRITICAL alert inside a high-frequency critical pattern is
	// corroborated by the pattern itself when telemetry is silent.
	if alert.Severity == models.SeverityCritical && idx.hasCriticalPattern(alert.Target, alert.Timestamp) {
		return models.Support{
			Supported:      true,
			ByAlertPattern: true,
			Reasons:        []string{"Metric data unavailable, but high-frequency critical alert pattern detected"},
		}
	}

	return models.Support{Reasons: []string{"No abnormal metrics found"}}
}

func (idx *Index) checkSample(s models.MetricSample) (string, bool) {
	name := strings.ToLower(s.Metric)
	switch {
	case strings.Contains(name, "cpu") && s.Value >= idx.thresholds.CPU:
		return fmt.Sprintf("High CPU (%d%%)", int(s.Value)), true
	case strings.Contains(name, "memory") && s.Value >= idx.thresholds.Memory:
		return fmt.Sprintf("High memory usage (%d%%)", int(s.Value)), true
	case (strings.Contains(name, "disk") || strings.Contains(name, "storage")) && s.Value >= idx.thresholds.Storage:
		return fmt.Sprintf("Storage pressure (%d%%)", int(s.Value)), true
	}
	return "", false
}

// hasCriticalPattern reports >= patternMinCritical CRITICAL alerts for the
// target within the lookback window ending at the alert time.
func (idx *Index) hasCriticalPattern(target string, at time.Time) bool {
	times := idx.criticals[target]
	if len(times) < patternMinCritical {
		return false
	}
	start := at.Add(-patternLookback)
	lo := sort.Search(len(times), func(i int) bool { return !times[i].Before(start) })
	hi := sort.Search(len(times), func(i int) bool { return times[i].After(at) })
	return hi-lo >= patternMinCritical
}

func bucketOf(t time.Time) int64 {
	return t.Unix() / int64(BucketSize/time.Second)
}

// relevantBuckets enumerates the fixed small bucket set covering the alert
// window; with 5-minute buckets that is offsets -20m..+20m.
func relevantBuckets(at time.Time) []int64 {
	buckets := make([]int64, 0, 9)
	seen := make(map[int64]struct{}, 9)
	for offset := -20 * time.Minute; offset <= 20*time.Minute; offset += BucketSize {
		b := bucketOf(at.Add(offset))
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		buckets = append(buckets, b)
	}
	return buckets
}
