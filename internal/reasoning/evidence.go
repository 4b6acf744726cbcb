package reasoning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/normalize"
)

// downKeywords distinguish a target that is truly down from one that is
// critical but still running.
var downKeywords = []string{
	"STOP", "DB_DOWN", "INSTANCE_TERMINATED", "SHUTDOWN",
	"INSTANCE TERMINATED", "DATABASE DOWN", "ORA-01034",
	"ORA-01033", "ORACLE NOT AVAILABLE", "MOUNT EXCLUSIVE",
}

// TargetStat is one target's share of the alert population.
type TargetStat struct {
	Name          string
	AlertCount    int
	CriticalCount int
	Percentage    float64
}

// Summary aggregates an alert population by severity and target.
type Summary struct {
	Total         int
	BySeverity    map[models.Severity]int
	CriticalCount int
	Targets       []TargetStat
}

// DownStatus separates truly-down evidence from critical-but-running.
type DownStatus struct {
	DownCount          int
	CriticalCount      int
	TrulyDown          bool
	CriticalButRunning bool
}

// Evidence is everything the reasoning and decision stages consume for one
// question. Alerts holds the scoped population after any widening.
type Evidence struct {
	Alerts         []models.Alert
	Summary        Summary
	Temporal       *TemporalPatterns
	Down           DownStatus
	ResolvedTarget string
	TargetFound    bool
	Widened        bool
	WideningReason string
	Corrections    []string
}

func summarize(alerts []models.Alert) Summary {
	s := Summary{BySeverity: make(map[models.Severity]int)}
	byTarget := make(map[string]*TargetStat)

	for _, a := range alerts {
		s.Total++
		s.BySeverity[a.Severity]++
		if a.Severity == models.SeverityCritical {
			s.CriticalCount++
		}
		stat, ok := byTarget[a.Target]
		if !ok {
			stat = &TargetStat{Name: a.Target}
			byTarget[a.Target] = stat
		}
		stat.AlertCount++
		if a.Severity == models.SeverityCritical {
			stat.CriticalCount++
		}
	}

	s.Targets = make([]TargetStat, 0, len(byTarget))
	for _, stat := range byTarget {
		if s.Total > 0 {
			stat.Percentage = float64(stat.AlertCount) / float64(s.Total) * 100
		}
		s.Targets = append(s.Targets, *stat)
	}
	sort.Slice(s.Targets, func(i, j int) bool {
		a, b := s.Targets[i], s.Targets[j]
		if a.AlertCount != b.AlertCount {
			return a.AlertCount > b.AlertCount
		}
		return a.Name < b.Name
	})
	return s
}

func detectDown(alerts []models.Alert) DownStatus {
	var d DownStatus
	for _, a := range alerts {
		msg := strings.ToUpper(a.Message)
		down := false
		for _, kw := range downKeywords {
			if strings.Contains(msg, kw) {
				down = true
				break
			}
		}
		if down {
			d.DownCount++
		} else if a.Severity == models.SeverityCritical {
			d.CriticalCount++
		}
	}
	d.TrulyDown = d.DownCount > 0
	d.CriticalButRunning = d.DownCount == 0 && d.CriticalCount > 0
	return d
}

// gatherEvidence scopes the population to the requested target, widening
// automatically when the exact scope is empty: first the closest fuzzy match
// among known targets, then the global population. The widening and its
// reason are always recorded so the answer can surface them.
func gatherEvidence(alerts []models.Alert, target string, norm *normalize.Normalizer) *Evidence {
	ev := &Evidence{ResolvedTarget: target}

	scoped := alerts
	if target != "" {
		scoped = filterByTarget(alerts, target, norm)
		if len(scoped) > 0 {
			ev.TargetFound = true
		} else {
			global := summarize(alerts)
			if best, ok := closestTarget(target, global.Targets); ok {
				ev.Widened = true
				ev.WideningReason = fmt.Sprintf("Target %q not found exactly; showing closest match %q", target, best)
				ev.ResolvedTarget = best
				scoped = filterByTarget(alerts, best, norm)
			} else {
				ev.Widened = true
				ev.WideningReason = fmt.Sprintf("Target %q has no alerts; showing global distribution", target)
				ev.ResolvedTarget = ""
				scoped = alerts
			}
		}
	}

	ev.Alerts = scoped
	ev.Summary = summarize(scoped)
	ev.Down = detectDown(scoped)
	if tp, ok := AnalyzeTemporal(scoped); ok {
		ev.Temporal = &tp
	}
	return ev
}

func filterByTarget(alerts []models.Alert, target string, norm *normalize.Normalizer) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if norm.Equals(a.Target, target) {
			out = append(out, a)
		}
	}
	return out
}

// closestTarget picks the best fuzzy match among known targets: substring
// containment first, then character-set overlap with a length penalty. A
// match below the floor score is rejected so unrelated names never resolve.
func closestTarget(target string, known []TargetStat) (string, bool) {
	const floor = 40.0
	wanted := strings.ToUpper(strings.TrimSpace(target))
	if wanted == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, stat := range known {
		candidate := strings.ToUpper(stat.Name)
		var score float64
		if strings.Contains(candidate, wanted) || strings.Contains(wanted, candidate) {
			score = 100 + float64(len(candidate))
		} else {
			score = charSimilarity(wanted, candidate)
		}
		if score > bestScore {
			bestScore = score
			best = stat.Name
		}
	}
	if bestScore < floor {
		return "", false
	}
	return best, true
}

func charSimilarity(a, b string) float64 {
	setA := make(map[rune]bool)
	for _, r := range a {
		setA[r] = true
	}
	setB := make(map[rune]bool)
	for _, r := range b {
		setB[r] = true
	}
	common := 0
	union := len(setB)
	for r := range setA {
		if setB[r] {
			common++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	lenDiff := len(a) - len(b)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	return float64(common)/float64(union)*100 - float64(lenDiff*5)
}
