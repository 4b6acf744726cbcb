package reasoning

import (
	"fmt"
	"strings"

	"github.com/oraclewatch/oem-insight/internal/models"
)

// nightHours covers the 22:00-06:00 span used for the night/day split.
var nightHours = map[int]bool{22: true, 23: true, 0: true, 1: true, 2: true, 3: true, 4: true, 5: true}

// burstFraction marks an hour as part of a burst window when its count
// reaches this fraction of the peak hour's count.
const burstFraction = 0.2

// HourSpan is a contiguous run of burst hours within a single day. A burst
// that crosses midnight shows up as two spans.
type HourSpan struct {
	Start int
	End   int
}

func (s HourSpan) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%02d:00", s.Start)
	}
	return fmt.Sprintf("%02d:00-%02d:00", s.Start, s.End)
}

// TemporalPatterns summarizes the hour-of-day distribution of an alert
// population.
type TemporalPatterns struct {
	Hourly      [24]int
	PeakHour    int
	PeakCount   int
	NightCount  int
	DayCount    int
	NightPct    float64
	DayPct      float64
	BurstHours  []int
	BurstRanges []HourSpan
	Total       int
}

// AnalyzeTemporal builds the hourly histogram, peak hour, night/day split and
// burst windows for a set of alerts. ok is false when no alert carries a
// timestamp.
func AnalyzeTemporal(alerts []models.Alert) (TemporalPatterns, bool) {
	var tp TemporalPatterns
	for _, a := range alerts {
		if a.Timestamp.IsZero() {
			continue
		}
		tp.Hourly[a.Timestamp.Hour()]++
		tp.Total++
	}
	if tp.Total == 0 {
		return tp, false
	}

	for hour, count := range tp.Hourly {
		if count > tp.PeakCount {
			tp.PeakHour = hour
			tp.PeakCount = count
		}
		if nightHours[hour] {
			tp.NightCount += count
		} else {
			tp.DayCount += count
		}
	}
	tp.NightPct = float64(tp.NightCount) / float64(tp.Total) * 100
	tp.DayPct = float64(tp.DayCount) / float64(tp.Total) * 100

	threshold := float64(tp.PeakCount) * burstFraction
	for hour, count := range tp.Hourly {
		if count > 0 && float64(count) >= threshold {
			tp.BurstHours = append(tp.BurstHours, hour)
		}
	}
	tp.BurstRanges = consecutiveSpans(tp.BurstHours)
	return tp, true
}

// consecutiveSpans folds ascending hours into contiguous ranges.
func consecutiveSpans(hours []int) []HourSpan {
	if len(hours) == 0 {
		return nil
	}
	spans := []HourSpan{{Start: hours[0], End: hours[0]}}
	for _, h := range hours[1:] {
		last := &spans[len(spans)-1]
		if h == last.End+1 {
			last.End = h
			continue
		}
		spans = append(spans, HourSpan{Start: h, End: h})
	}
	return spans
}

// CorrectAssumptions compares the question's temporal framing against the
// observed peak hour and returns correction lines when they disagree.
func CorrectAssumptions(question string, tp TemporalPatterns) []string {
	q := strings.ToLower(question)
	var corrections []string

	if strings.Contains(q, "midnight") || strings.Contains(q, "night") {
		if !nightHours[tp.PeakHour] {
			corrections = append(corrections, fmt.Sprintf(
				"Correction: peak alert time is actually %02d:00 (during the day), not at night. Night hours account for only %.1f%% of alerts.",
				tp.PeakHour, tp.NightPct))
		}
	}
	for _, word := range []string{"morning", "afternoon", "business hours", "daytime"} {
		if strings.Contains(q, word) {
			if nightHours[tp.PeakHour] {
				corrections = append(corrections, fmt.Sprintf(
					"Correction: peak alert time is actually %02d:00 (at night), not during business hours.",
					tp.PeakHour))
			}
			break
		}
	}
	return corrections
}
