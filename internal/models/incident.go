package models

import "time"

// Incident is a time-bounded run of same-key alerts treated as one
// operational event. Incidents are built exclusively by the aggregator and
// are immutable once closed.
type Incident struct {
	Target       string
	IssueType    string
	Severity     Severity
	Count        int
	FirstSeen    time.Time
	LastSeen     time.Time
	DisplayCause string
}

// Key identifies the (target, issue, severity) grouping of an incident.
type IncidentKey struct {
	Target    string
	IssueType string
	Severity  Severity
}

// Key returns the grouping key of the incident.
func (i Incident) Key() IncidentKey {
	return IncidentKey{Target: i.Target, IssueType: i.IssueType, Severity: i.Severity}
}

// Span returns the duration between first and last alert of the incident.
func (i Incident) Span() time.Duration {
	return i.LastSeen.Sub(i.FirstSeen)
}
