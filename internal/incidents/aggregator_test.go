package incidents

import (
	"testing"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
)

var base = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func alertAt(offset time.Duration, target, issue string, sev models.Severity) models.Alert {
	return models.Alert{
		Timestamp: base.Add(offset),
		Target:    target,
		IssueType: issue,
		Severity:  sev,
		Message:   "test alert",
	}
}

func TestWindowSplit(t *testing.T) {
	// Alerts at t=0, 300s, 1200s with a 600s threshold: the first two merge,
	// the third starts a new incident.
	agg := NewAggregator(600 * time.Second)
	alerts := []models.Alert{
		alertAt(0, "PRODDB01", "INTERNAL_ERROR", models.SeverityCritical),
		alertAt(300*time.Second, "PRODDB01", "INTERNAL_ERROR", models.SeverityCritical),
		alertAt(1200*time.Second, "PRODDB01", "INTERNAL_ERROR", models.SeverityCritical),
	}

	incidents := agg.Build(alerts)
	if len(incidents) != 2 {
		t.Fatalf("expected 2 incidents, got %d", len(incidents))
	}
	first, second := incidents[0], incidents[1]
	if first.Count != 2 || !first.FirstSeen.Equal(base) || !first.LastSeen.Equal(base.Add(300*time.Second)) {
		t.Errorf("first incident wrong: %+v", first)
	}
	if second.Count != 1 || !second.FirstSeen.Equal(base.Add(1200*time.Second)) {
		t.Errorf("second incident wrong: %+v", second)
	}
}

func TestGapBoundary(t *testing.T) {
	agg := NewAggregator(600 * time.Second)

	exact := agg.Build([]models.Alert{
		alertAt(0, "DB1", "CPU", models.SeverityWarning),
		alertAt(600*time.Second, "DB1", "CPU", models.SeverityWarning),
	})
	if len(exact) != 1 || exact[0].Count != 2 {
		t.Errorf("alerts exactly threshold apart must merge, got %+v", exact)
	}

	over := agg.Build([]models.Alert{
		alertAt(0, "DB1", "CPU", models.SeverityWarning),
		alertAt(600*time.Second+time.Second, "DB1", "CPU", models.SeverityWarning),
	})
	if len(over) != 2 {
		t.Errorf("alerts beyond threshold must split, got %+v", over)
	}
}

func TestKeyChangeClosesIncident(t *testing.T) {
	agg := NewAggregator(DefaultGap)
	incidents := agg.Build([]models.Alert{
		alertAt(0, "DB1", "CPU", models.SeverityWarning),
		alertAt(time.Minute, "DB1", "CPU", models.SeverityCritical),
		alertAt(2*time.Minute, "DB2", "CPU", models.SeverityCritical),
		alertAt(3*time.Minute, "DB2", "STORAGE", models.SeverityCritical),
	})
	if len(incidents) != 4 {
		t.Fatalf("every key change starts a new incident, got %d", len(incidents))
	}
}

func TestCountConservation(t *testing.T) {
	agg := NewAggregator(DefaultGap)
	alerts := []models.Alert{
		alertAt(0, "DB1", "CPU", models.SeverityWarning),
		alertAt(time.Minute, "DB1", "CPU", models.SeverityWarning),
		{Target: "DB1", IssueType: "CPU"},                            // no timestamp: dropped
		{Timestamp: base.Add(2 * time.Minute), IssueType: "STORAGE"}, // no target: dropped
		alertAt(40*time.Minute, "DB1", "CPU", models.SeverityWarning),
	}

	incidents := agg.Build(alerts)
	total := 0
	for _, inc := range incidents {
		total += inc.Count
	}
	if total != 3 {
		t.Errorf("sum of incident counts = %d, want 3 (valid alerts only)", total)
	}
}

func TestDeterministic(t *testing.T) {
	agg := NewAggregator(DefaultGap)
	alerts := []models.Alert{
		alertAt(9*time.Minute, "DB1", "CPU", models.SeverityWarning),
		alertAt(0, "DB1", "CPU", models.SeverityWarning),
		alertAt(4*time.Minute, "DB2", "CPU", models.SeverityWarning),
		alertAt(2*time.Minute, "DB1", "CPU", models.SeverityWarning),
	}

	first := agg.Build(alerts)
	second := agg.Build(alerts)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic incident count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("incident %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDisplayCauseRefinement(t *testing.T) {
	agg := NewAggregator(DefaultGap)

	a := alertAt(0, "DB1", "INTERNAL_ERROR", models.SeverityCritical)
	a.DisplayCause = "ORA-600"
	b := alertAt(time.Minute, "DB1", "INTERNAL_ERROR", models.SeverityCritical)
	b.DisplayCause = "ORA-600 [kcbgtcr_5]"
	c := alertAt(2*time.Minute, "DB1", "INTERNAL_ERROR", models.SeverityCritical)
	c.DisplayCause = "ORA-600"

	incidents := agg.Build([]models.Alert{a, b, c})
	if len(incidents) != 1 {
		t.Fatalf("expected a single incident, got %d", len(incidents))
	}
	if incidents[0].DisplayCause != "ORA-600 [kcbgtcr_5]" {
		t.Errorf("bracketed qualifier should win, got %q", incidents[0].DisplayCause)
	}
}
