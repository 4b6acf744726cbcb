package models

import "time"

// Severity captures the monitoring severity of an alert.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// ParseSeverity maps a raw severity string onto the closed severity set,
// defaulting to INFO for anything unrecognised.
func ParseSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return Severity(raw)
	default:
		return SeverityInfo
	}
}

// Alert is a single normalized monitoring alert. Alerts are immutable and
// read-only to the analysis core; Target is always in canonical form.
type Alert struct {
	Timestamp    time.Time
	Target       string
	TargetType   string
	Severity     Severity
	Message      string
	IssueType    string
	DisplayCause string
}

// Valid reports whether the alert carries enough identity to participate in
// aggregation and scoring.
func (a Alert) Valid() bool {
	return !a.Timestamp.IsZero() && a.Target != ""
}

// MetricSample is a single numeric telemetry observation for a target.
type MetricSample struct {
	Timestamp time.Time
	Target    string
	Metric    string
	Value     float64
}

// TimeRange bounds a query window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window (inclusive bounds).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// HourWindow is an hour-of-day constraint extracted from a question
// ("between 2 and 4 am").
type HourWindow struct {
	StartHour int
	EndHour   int
}
