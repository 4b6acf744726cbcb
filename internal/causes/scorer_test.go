package causes

import (
	"fmt"
	"testing"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/normalize"
)

var start = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func makeAlerts(count int, target, message string, sev models.Severity, spacing time.Duration) []models.Alert {
	alerts := make([]models.Alert, 0, count)
	for i := 0; i < count; i++ {
		alerts = append(alerts, models.Alert{
			Timestamp: start.Add(time.Duration(i) * spacing),
			Target:    target,
			Severity:  sev,
			Message:   message,
		})
	}
	return alerts
}

func TestFrequencyAndBand(t *testing.T) {
	// 120 of 200 alerts are ORA-600: frequency 0.6, count >= 100, and with
	// tight clustering the blend lands in the HIGH band.
	alerts := makeAlerts(120, "PRODDB01", "ORA-600 internal error", models.SeverityCritical, time.Minute)
	alerts = append(alerts, makeAlerts(80, "PRODDB01", "tablespace TEMP nearly full", models.SeverityWarning, time.Hour)...)

	scorer := NewScorer(normalize.New(nil))
	ranked := scorer.Score(alerts, "")
	if len(ranked) == 0 {
		t.Fatal("expected candidates")
	}

	top := ranked[0]
	if top.ErrorType != "ORA-600" {
		t.Fatalf("expected ORA-600 on top, got %q", top.ErrorType)
	}
	if top.Breakdown.Frequency != 0.6 {
		t.Errorf("frequency = %v, want 0.6", top.Breakdown.Frequency)
	}
	if top.Band != models.BandHigh {
		t.Errorf("band = %v, want HIGH (score %v, count %d)", top.Band, top.Score, top.Count)
	}
	if top.AbstractCause != CauseInternalEngine {
		t.Errorf("abstract cause = %q", top.AbstractCause)
	}
}

func TestScoresInUnitRange(t *testing.T) {
	alerts := append(
		makeAlerts(500, "DB1", "ORA-600 [kcb_1]", models.SeverityCritical, time.Second),
		makeAlerts(3, "DB1", "listener TNS-12541 down", models.SeverityWarning, 48*time.Hour)...,
	)
	alerts = append(alerts, models.Alert{Target: "DB1", Message: "no timestamp alert"})

	for _, c := range NewScorer(nil).Score(alerts, "") {
		for name, v := range map[string]float64{
			"frequency":  c.Breakdown.Frequency,
			"recency":    c.Breakdown.Recency,
			"repetition": c.Breakdown.Repetition,
			"burst":      c.Breakdown.BurstDensity,
			"blend":      c.Score,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s %s out of [0,1]: %v", c.ErrorType, name, v)
			}
		}
	}
}

func TestRankingTotalOrder(t *testing.T) {
	// Identical populations for two error types: the tie breaks on error
	// type, deterministically.
	alerts := append(
		makeAlerts(20, "DB1", "ORA-4031 shared pool", models.SeverityWarning, time.Minute),
		makeAlerts(20, "DB1", "ORA-1653 cannot extend", models.SeverityWarning, time.Minute)...,
	)

	scorer := NewScorer(nil)
	first := scorer.Score(alerts, "")
	second := scorer.Score(alerts, "")
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 candidates, got %d/%d", len(first), len(second))
	}
	for i := range first {
		if first[i].ErrorType != second[i].ErrorType {
			t.Errorf("ranking unstable at %d: %q vs %q", i, first[i].ErrorType, second[i].ErrorType)
		}
	}
	if first[0].ErrorType != "ORA-1653" {
		t.Errorf("tie must break on error type ascending, got %q first", first[0].ErrorType)
	}
}

func TestTargetFilterIsStrict(t *testing.T) {
	alerts := append(
		makeAlerts(10, "MIDEVSTB", "ORA-600", models.SeverityCritical, time.Minute),
		makeAlerts(10, "MIDEVSTBN", "ORA-4031", models.SeverityCritical, time.Minute)...,
	)

	ranked := NewScorer(normalize.New(nil)).Score(alerts, "MIDEVSTB")
	if len(ranked) != 1 {
		t.Fatalf("expected 1 candidate for exact target, got %d", len(ranked))
	}
	if ranked[0].ErrorType != "ORA-600" {
		t.Errorf("MIDEVSTBN alerts leaked into MIDEVSTB scope: %+v", ranked)
	}
}

func TestRecencyDefaultsWithoutTimestamps(t *testing.T) {
	alerts := []models.Alert{
		{Target: "DB1", Message: "ORA-600", Severity: models.SeverityCritical},
		{Target: "DB1", Message: "ORA-600", Severity: models.SeverityCritical},
	}
	ranked := NewScorer(nil).Score(alerts, "")
	if len(ranked) != 1 {
		t.Fatalf("expected one candidate, got %d", len(ranked))
	}
	if ranked[0].Breakdown.Recency != 0.5 {
		t.Errorf("recency without timestamps = %v, want 0.5", ranked[0].Breakdown.Recency)
	}
	if ranked[0].Breakdown.BurstDensity != 0.3 {
		t.Errorf("burst without timestamps = %v, want default 0.3", ranked[0].Breakdown.BurstDensity)
	}
}

func TestBracketedArgumentKeptInErrorType(t *testing.T) {
	alerts := []models.Alert{
		{Timestamp: start, Target: "DB1", Message: "ORA-600 [kcbgtcr_5] encountered", Severity: models.SeverityCritical},
	}
	ranked := NewScorer(nil).Score(alerts, "")
	if ranked[0].ErrorType != "ORA-600 [kcbgtcr_5]" {
		t.Errorf("error type = %q, want bracketed argument preserved", ranked[0].ErrorType)
	}
}

func TestEmptyPopulation(t *testing.T) {
	if got := NewScorer(nil).Score(nil, ""); got != nil {
		t.Errorf("empty input must yield nil, got %v", got)
	}
	if got := NewScorer(nil).Score(makeAlerts(3, "DB1", "ORA-600", models.SeverityInfo, time.Minute), "NOSUCH"); got != nil {
		t.Errorf("unmatched target must yield nil, got %v", got)
	}
}

func TestBandThresholds(t *testing.T) {
	cases := []struct {
		score float64
		count int
		want  models.ConfidenceBand
	}{
		{0.65, 120, models.BandHigh},
		{0.65, 99, models.BandMedium}, // high score alone is not HIGH
		{0.29, 50, models.BandMedium},
		{0.31, 5, models.BandMedium},
		{0.1, 9, models.BandLow},
	}
	for _, tc := range cases {
		if got := BandFor(tc.score, tc.count); got != tc.want {
			t.Errorf("BandFor(%v, %d) = %v, want %v", tc.score, tc.count, got, tc.want)
		}
	}
}

func ExampleScorer_Score() {
	alerts := makeAlerts(4, "PRODDB01", "ORA-600 detected", models.SeverityCritical, time.Minute)
	top := NewScorer(nil).Score(alerts, "")[0]
	fmt.Println(top.ErrorType, top.Count)
	// Output: ORA-600 4
}
