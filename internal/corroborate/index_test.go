package corroborate

import (
	"strings"
	"testing"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
)

var epoch = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func TestHighCPUCorroborates(t *testing.T) {
	// Metric CPU=90 at t=100s, alert at t=110s for the same target.
	samples := []models.MetricSample{
		{Timestamp: epoch.Add(100 * time.Second), Target: "DBX", Metric: "cpu_utilization", Value: 90},
	}
	alert := models.Alert{
		Timestamp: epoch.Add(110 * time.Second),
		Target:    "DBX",
		Severity:  models.SeverityWarning,
	}

	idx := Build(samples, nil, DefaultThresholds())
	support := idx.Corroborate(alert)
	if !support.Supported {
		t.Fatal("expected alert to be supported")
	}
	if len(support.Reasons) == 0 || !strings.Contains(support.Reasons[0], "High CPU") {
		t.Errorf("reason should mention High CPU, got %v", support.Reasons)
	}
}

func TestThresholdsRespected(t *testing.T) {
	samples := []models.MetricSample{
		{Timestamp: epoch, Target: "DBX", Metric: "cpu_utilization", Value: 84},
		{Timestamp: epoch, Target: "DBX", Metric: "memory_used_pct", Value: 79},
		{Timestamp: epoch, Target: "DBX", Metric: "storage_used_pct", Value: 79.9},
	}
	alert := models.Alert{Timestamp: epoch, Target: "DBX", Severity: models.SeverityWarning}

	idx := Build(samples, nil, DefaultThresholds())
	support := idx.Corroborate(alert)
	if support.Supported {
		t.Errorf("values below thresholds must not corroborate: %v", support.Reasons)
	}
}

func TestWindowBounds(t *testing.T) {
	// Window is [T-15m, T+5m]. A spike 16 minutes before or 6 after is out.
	samples := []models.MetricSample{
		{Timestamp: epoch.Add(-16 * time.Minute), Target: "DBX", Metric: "cpu", Value: 95},
		{Timestamp: epoch.Add(6 * time.Minute), Target: "DBX", Metric: "cpu", Value: 95},
	}
	alert := models.Alert{Timestamp: epoch, Target: "DBX", Severity: models.SeverityWarning}

	idx := Build(samples, nil, DefaultThresholds())
	if idx.Corroborate(alert).Supported {
		t.Error("samples outside the alert window must not corroborate")
	}

	inWindow := Build([]models.MetricSample{
		{Timestamp: epoch.Add(-15 * time.Minute), Target: "DBX", Metric: "cpu", Value: 95},
	}, nil, DefaultThresholds())
	if !inWindow.Corroborate(alert).Supported {
		t.Error("sample exactly at the window edge must corroborate")
	}
}

func TestTargetIsolation(t *testing.T) {
	samples := []models.MetricSample{
		{Timestamp: epoch, Target: "OTHERDB", Metric: "cpu", Value: 99},
	}
	alert := models.Alert{Timestamp: epoch, Target: "DBX", Severity: models.SeverityWarning}

	idx := Build(samples, nil, DefaultThresholds())
	if idx.Corroborate(alert).Supported {
		t.Error("another target's telemetry must not corroborate")
	}
}

func TestCriticalPatternFallback(t *testing.T) {
	alerts := []models.Alert{
		{Timestamp: epoch.Add(-10 * time.Hour), Target: "DBX", Severity: models.SeverityCritical},
		{Timestamp: epoch.Add(-5 * time.Hour), Target: "DBX", Severity: models.SeverityCritical},
		{Timestamp: epoch.Add(-1 * time.Hour), Target: "DBX", Severity: models.SeverityCritical},
	}
	critical := models.Alert{Timestamp: epoch, Target: "DBX", Severity: models.SeverityCritical}

	idx := Build(nil, alerts, DefaultThresholds())
	support := idx.Corroborate(critical)
	if !support.Supported || !support.ByAlertPattern {
		t.Fatalf("expected alert-pattern corroboration, got %+v", support)
	}

	// Same pattern but a WARNING alert: no fallback.
	warning := models.Alert{Timestamp: epoch, Target: "DBX", Severity: models.SeverityWarning}
	if idx.Corroborate(warning).Supported {
		t.Error("pattern fallback applies to CRITICAL alerts only")
	}
}

func TestPatternNeedsThreeCriticals(t *testing.T) {
	alerts := []models.Alert{
		{Timestamp: epoch.Add(-2 * time.Hour), Target: "DBX", Severity: models.SeverityCritical},
		{Timestamp: epoch.Add(-1 * time.Hour), Target: "DBX", Severity: models.SeverityCritical},
	}
	critical := models.Alert{Timestamp: epoch, Target: "DBX", Severity: models.SeverityCritical}

	idx := Build(nil, alerts, DefaultThresholds())
	support := idx.Corroborate(critical)
	if support.Supported {
		t.Errorf("two criticals in 24h are not a pattern: %+v", support)
	}
	if len(support.Reasons) == 0 {
		t.Error("unsupported result still carries a reason")
	}
}

func TestCachedBuilderMemoizes(t *testing.T) {
	builder, err := NewCachedBuilder(4, time.Minute, DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}

	builds := 0
	load := func() *Index {
		builds++
		return Build(nil, nil, builder.Thresholds())
	}

	builder.Get("global", epoch, load)
	builder.Get("global", epoch, load)
	if builds != 1 {
		t.Errorf("expected one build, got %d", builds)
	}
	builder.Get("DBX", epoch, load)
	if builds != 2 {
		t.Errorf("different scope must rebuild, got %d builds", builds)
	}
}
