package reasoning

import (
	"testing"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
)

func alertAtHour(hour int, target string) models.Alert {
	return models.Alert{
		Timestamp: time.Date(2026, 3, 10, hour, 15, 0, 0, time.UTC),
		Target:    target,
		Severity:  models.SeverityWarning,
	}
}

func TestAnalyzeTemporalPeakAndSplit(t *testing.T) {
	var alerts []models.Alert
	for i := 0; i < 10; i++ {
		alerts = append(alerts, alertAtHour(19, "DB1"))
	}
	for i := 0; i < 3; i++ {
		alerts = append(alerts, alertAtHour(2, "DB1"))
	}

	tp, ok := AnalyzeTemporal(alerts)
	if !ok {
		t.Fatal("expected temporal data")
	}
	if tp.PeakHour != 19 || tp.PeakCount != 10 {
		t.Errorf("peak = %d:00 (%d), want 19:00 (10)", tp.PeakHour, tp.PeakCount)
	}
	if tp.NightCount != 3 || tp.DayCount != 10 {
		t.Errorf("night/day = %d/%d, want 3/10", tp.NightCount, tp.DayCount)
	}
}

func TestAnalyzeTemporalNoTimestamps(t *testing.T) {
	_, ok := AnalyzeTemporal([]models.Alert{{Target: "DB1"}})
	if ok {
		t.Error("alerts without timestamps must not produce temporal data")
	}
}

func TestBurstRanges(t *testing.T) {
	var alerts []models.Alert
	for _, hour := range []int{22, 23, 0, 1, 9} {
		for i := 0; i < 5; i++ {
			alerts = append(alerts, alertAtHour(hour, "DB1"))
		}
	}

	tp, _ := AnalyzeTemporal(alerts)
	if len(tp.BurstRanges) != 3 {
		t.Fatalf("burst ranges = %v, want 3 spans", tp.BurstRanges)
	}
	if tp.BurstRanges[0] != (HourSpan{Start: 0, End: 1}) {
		t.Errorf("first span = %v, want 00:00-01:00", tp.BurstRanges[0])
	}
	if tp.BurstRanges[2] != (HourSpan{Start: 22, End: 23}) {
		t.Errorf("last span = %v, want 22:00-23:00", tp.BurstRanges[2])
	}
}

func TestCorrectAssumptions(t *testing.T) {
	tp := TemporalPatterns{PeakHour: 19, NightPct: 12.5, Total: 100}
	corrections := CorrectAssumptions("why do alerts spike after midnight?", tp)
	if len(corrections) != 1 {
		t.Fatalf("corrections = %v, want one", corrections)
	}

	nightPeak := TemporalPatterns{PeakHour: 2, Total: 100}
	corrections = CorrectAssumptions("what goes wrong during business hours?", nightPeak)
	if len(corrections) != 1 {
		t.Fatalf("corrections = %v, want one", corrections)
	}

	// Assumption matches reality: no correction.
	if got := CorrectAssumptions("what happens at night?", nightPeak); len(got) != 0 {
		t.Errorf("unexpected corrections: %v", got)
	}
}
