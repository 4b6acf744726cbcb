// Package incidents groups time-ordered alert streams into discrete
// incidents using sliding time-window aggregation.
package incidents

import (
	"sort"
	"strings"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
)

// DefaultGap is the maximum gap between successive same-key alerts that
// still belongs to one incident.
const DefaultGap = 10 * time.Minute

// Aggregator builds incidents from an unordered alert population. A changed
// gap threshold requires a full rebuild; incidents are never patched
// incrementally.
type Aggregator struct {
	gap time.Duration
}

// NewAggregator constructs an Aggregator with the given gap threshold.
// Non-positive thresholds fall back to DefaultGap.
func NewAggregator(gap time.Duration) *Aggregator {
	if gap <= 0 {
		gap = DefaultGap
	}
	return &Aggregator{gap: gap}
}

// Build groups alerts into incidents. Alerts lacking a timestamp or target
// are dropped before sorting. The result is deterministic for a fixed gap:
// a stable sort by timestamp followed by a single scan with one open
// incident per pass.
func (g *Aggregator) Build(alerts []models.Alert) []models.Incident {
	valid := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Valid() {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})

	var incidents []models.Incident
	var open *models.Incident

	for _, a := range valid {
		issue := a.IssueType
		if issue == "" {
			issue = "OTHER"
		}
		severity := a.Severity
		if severity == "" {
			severity = models.SeverityInfo
		}

		if open != nil && open.Target == a.Target && open.IssueType == issue &&
			open.Severity == severity && a.Timestamp.Sub(open.LastSeen) <= g.gap {
			open.Count++
			open.LastSeen = a.Timestamp
			if moreSpecific(a.DisplayCause, open.DisplayCause) {
				open.DisplayCause = a.DisplayCause
			}
			continue
		}

		if open != nil {
			incidents = append(incidents, *open)
		}
		open = &models.Incident{
			Target:       a.Target,
			IssueType:    issue,
			Severity:     severity,
			Count:        1,
			FirstSeen:    a.Timestamp,
			LastSeen:     a.Timestamp,
			DisplayCause: a.DisplayCause,
		}
	}

	if open != nil {
		incidents = append(incidents, *open)
	}
	return incidents
}

// moreSpecific reports whether candidate should replace current as the
// incident's display cause. A bracketed qualifier marks the more specific
// variant; this is a display policy, not a correctness rule.
func moreSpecific(candidate, current string) bool {
	if candidate == "" || candidate == current {
		return false
	}
	return strings.Contains(candidate, "[")
}
