package reasoning

import (
	"fmt"
	"strings"

	"github.com/oraclewatch/oem-insight/internal/causes"
	"github.com/oraclewatch/oem-insight/internal/models"
)

// actionEntry pairs a known error code with its remediation playbook.
type actionEntry struct {
	description string
	urgency     string
	steps       []string
}

var codeActionTable = map[string]actionEntry{
	"ORA-600": {
		description: "Internal error, kernel code assertion failure",
		urgency:     "CRITICAL",
		steps: []string{
			"Review trace files in the diagnostic repository",
			"Search the vendor knowledge base for the specific error arguments",
			"Apply the latest database patches if available",
			"Raise a vendor service request with trace files attached",
		},
	},
	"ORA-7445": {
		description: "Operating system exception, process-level crash",
		urgency:     "CRITICAL",
		steps: []string{
			"Check OS logs for memory or resource issues",
			"Review trace files for the failing call stack",
			"Verify hardware health (memory, disk)",
			"Apply OS and database patches",
		},
	},
	"ORA-4031": {
		description: "Shared pool memory exhaustion",
		urgency:     "HIGH",
		steps: []string{
			"Increase the shared pool size parameter",
			"Identify and fix cursor leaks",
			"Pin frequently used packages",
			"Review application SQL for hard parsing",
		},
	},
	"ORA-1555": {
		description: "Snapshot too old, undo retention issue",
		urgency:     "MEDIUM",
		steps: []string{
			"Increase the undo retention parameter",
			"Size the undo tablespace appropriately",
			"Optimize long-running queries",
			"Schedule batch jobs during low-activity periods",
		},
	},
	"ORA-12154": {
		description: "Name resolution failure",
		urgency:     "HIGH",
		steps: []string{
			"Verify the network alias configuration",
			"Check listener status on the target host",
			"Test network connectivity",
			"Verify DNS resolution",
		},
	},
	"ORA-16014": {
		description: "Archive log destination full",
		urgency:     "CRITICAL",
		steps: []string{
			"Free space on the archive destination",
			"Back up and delete old archive logs",
			"Add an alternative archive destination",
			"Increase the archive area size",
		},
	},
}

var issueActionTable = map[string]actionEntry{
	"INTERNAL_ERROR": {
		urgency: "HIGH",
		steps: []string{
			"Review the alert log for detailed error context",
			"Check for error codes in associated trace files",
			"Monitor for error pattern and frequency",
		},
	},
	"TABLESPACE_SPACE": {
		urgency: "HIGH",
		steps: []string{
			"Add datafiles to the affected tablespace",
			"Enable autoextend on existing datafiles",
			"Identify and purge old data",
			"Implement space monitoring thresholds",
		},
	},
	"LISTENER_DOWN": {
		urgency: "CRITICAL",
		steps: []string{
			"Check listener status",
			"Start the listener if it is down",
			"Review the listener log for errors",
			"Verify the listener configuration",
		},
	},
	"DATAGUARD_GAP": {
		urgency: "HIGH",
		steps: []string{
			"Check the network between primary and standby",
			"Verify redo transport configuration",
			"Review the standby alert log for errors",
			"Consider increasing the archive process count",
		},
	},
}

// patternShape classifies the temporal shape of a scored cause from its
// sub-scores.
func patternShape(b models.ScoreBreakdown) string {
	switch {
	case b.BurstDensity > 0.5:
		return "burst"
	case b.Repetition > 0.5:
		return "repeating"
	default:
		return "sustained"
	}
}

// MapActions links every recommended action to the cause that motivated it.
// Three fallback tiers guarantee a non-empty result: the direct code table,
// pattern-shape heuristics, then a universal checklist.
func MapActions(causeList []models.CandidateCause, riskLevel string, tp *TemporalPatterns) []models.ActionGroup {
	var groups []models.ActionGroup

	top := causeList
	if len(top) > 3 {
		top = top[:3]
	}
	for _, cause := range top {
		code := baseCode(cause.ErrorType)
		if entry, ok := codeActionTable[code]; ok {
			groups = append(groups, models.ActionGroup{
				Cause:         cause.ErrorType,
				AbstractCause: cause.AbstractCause,
				Urgency:       entry.urgency,
				Source:        "code table",
				Steps:         entry.steps,
			})
			continue
		}
		if code != "" {
			groups = append(groups, models.ActionGroup{
				Cause:         cause.ErrorType,
				AbstractCause: cause.AbstractCause,
				Urgency:       "HIGH",
				Source:        "code table",
				Steps: []string{
					fmt.Sprintf("Search the vendor knowledge base for %s", cause.ErrorType),
					"Review trace files for full error context",
					"Check the database alert log",
				},
			})
			continue
		}
		if entry, ok := issueActionTable[cause.ErrorType]; ok {
			groups = append(groups, models.ActionGroup{
				Cause:         cause.ErrorType,
				AbstractCause: cause.AbstractCause,
				Urgency:       entry.urgency,
				Source:        "code table",
				Steps:         entry.steps,
			})
		}
	}
	if len(groups) > 0 {
		return groups
	}

	// Tier 2: derive from the dominant pattern shape of the top causes.
	shaped := causeList
	if len(shaped) > 2 {
		shaped = shaped[:2]
	}
	for _, cause := range shaped {
		groups = append(groups, patternGroup(cause))
	}
	if len(groups) > 0 {
		return groups
	}

	// Tier 2b: no scored causes at all. Fall back to risk or peak hour.
	if riskLevel == "CRITICAL" || riskLevel == "HIGH" {
		return []models.ActionGroup{{
			Cause:         fmt.Sprintf("High alert volume (risk: %s)", riskLevel),
			AbstractCause: "Elevated risk due to alert volume",
			Urgency:       "CRITICAL",
			Source:        "risk posture",
			Steps: []string{
				"Triage and prioritize CRITICAL alerts immediately",
				"Assign an operator to monitor in real time",
				"Prepare escalation to the on-call lead",
				"Document current state for the incident report",
			},
		}}
	}
	if tp != nil && tp.Total > 0 {
		return []models.ActionGroup{{
			Cause:         fmt.Sprintf("Peak activity at %02d:00", tp.PeakHour),
			AbstractCause: "Time-based pattern detected",
			Urgency:       "MEDIUM",
			Source:        "temporal pattern",
			Steps: []string{
				fmt.Sprintf("Investigate activity around %02d:00", tp.PeakHour),
				"Check scheduled jobs running at this time",
				"Review batch processing schedules",
				"Consider adjusting maintenance windows",
			},
		}}
	}

	// Tier 3: universal checklist.
	return []models.ActionGroup{{
		Cause:         "General database instability",
		AbstractCause: causes.CauseGeneric,
		Urgency:       "MEDIUM",
		Source:        "universal checklist",
		Steps: []string{
			"Review the database alert log for recent errors",
			"Check listener status",
			"Monitor tablespace usage against thresholds",
			"Verify instance status",
		},
	}}
}

func patternGroup(cause models.CandidateCause) models.ActionGroup {
	switch patternShape(cause.Breakdown) {
	case "burst":
		return models.ActionGroup{
			Cause:         fmt.Sprintf("%s (burst pattern detected)", cause.ErrorType),
			AbstractCause: cause.AbstractCause,
			Urgency:       "HIGH",
			Source:        "pattern shape",
			Steps: []string{
				"Check for batch jobs or scheduled tasks during the burst window",
				"Review workload spikes in performance reports",
				"Analyze resource contention during the peak",
				"Consider load balancing or job rescheduling",
			},
		}
	case "repeating":
		return models.ActionGroup{
			Cause:         fmt.Sprintf("%s (repeating pattern)", cause.ErrorType),
			AbstractCause: cause.AbstractCause,
			Urgency:       "HIGH",
			Source:        "pattern shape",
			Steps: []string{
				"Identify the trigger for the recurring failures",
				"Check for scheduled jobs at the failure times",
				"Review application connection patterns",
				fmt.Sprintf("Search the vendor knowledge base for known issues with %s", cause.ErrorType),
			},
		}
	default:
		return models.ActionGroup{
			Cause:         fmt.Sprintf("%s (sustained issue)", cause.ErrorType),
			AbstractCause: cause.AbstractCause,
			Urgency:       "MEDIUM",
			Source:        "pattern shape",
			Steps: []string{
				"Review the alert log chronologically for the root trigger",
				"Check database and system health metrics",
				"Verify no configuration changes were made recently",
				"Monitor for the next occurrence with enhanced logging",
			},
		}
	}
}

// baseCode strips the bracketed argument and normalizes a structured error
// code to its table key, e.g. "ORA-00600 [qksan]" -> "ORA-600".
func baseCode(errorType string) string {
	upper := strings.ToUpper(strings.TrimSpace(errorType))
	if idx := strings.Index(upper, " ["); idx > 0 {
		upper = upper[:idx]
	}
	if !strings.HasPrefix(upper, "ORA") {
		return ""
	}
	digits := strings.TrimLeft(strings.TrimPrefix(strings.TrimPrefix(upper, "ORA"), "-"), "0")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return "ORA-" + digits
}
