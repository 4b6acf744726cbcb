package reasoning

import (
	"fmt"
	"strings"

	"github.com/oraclewatch/oem-insight/internal/models"
)

const maxConfidence = 0.99

// answerContext carries everything a formatter may render. Formatters are
// pure: they never mutate the context or the session.
type answerContext struct {
	question            string
	classification      models.Classification
	evidence            *Evidence
	causeList           []models.CandidateCause
	riskLevel           string
	lockedCause         string
	lockedUsed          bool
	lockedPeak          int
	lockedPeakUsed      bool
	lockedRisk          string
	lockedRiskUsed      bool
	actions             []models.ActionGroup
	incidentCount       int
	incidentSpanMinutes float64
	support             *models.Support
}

// peakHourFor prefers the session-locked peak hour over the recomputed one,
// keeping temporal statements consistent across a conversation.
func peakHourFor(c *answerContext, tp *TemporalPatterns) (int, int) {
	if c.lockedPeakUsed {
		return c.lockedPeak, tp.Hourly[c.lockedPeak]
	}
	return tp.PeakHour, tp.PeakCount
}

// formatter renders one answer contract. The bool reports whether action
// steps were included.
type formatter func(c *answerContext) (string, bool)

// formatters dispatch once on question type. Each entry enforces its own
// contract: FACT and STATUS never render a root cause or actions, ANALYSIS
// and PREDICTION render actions only on explicit request, ACTION always
// renders them.
var formatters = map[models.QuestionType]formatter{
	models.TypeFact:       formatFact,
	models.TypeStatus:     formatStatus,
	models.TypeAnalysis:   formatAnalysis,
	models.TypePrediction: formatPrediction,
	models.TypeAction:     formatAction,
}

func renderAnswer(qt models.QuestionType, c *answerContext) (string, bool) {
	f, ok := formatters[qt]
	if !ok {
		f = formatFact
	}
	text, actionsIncluded := f(c)
	if c.evidence.Widened && c.evidence.WideningReason != "" {
		text += "\n\nNote: " + c.evidence.WideningReason + "."
	}
	for _, corr := range c.evidence.Corrections {
		text += "\n" + corr
	}
	return text, actionsIncluded
}

func formatFact(c *answerContext) (string, bool) {
	var b strings.Builder
	s := c.evidence.Summary

	scope := "across the fleet"
	if c.evidence.ResolvedTarget != "" {
		scope = "for " + c.evidence.ResolvedTarget
	}
	fmt.Fprintf(&b, "%d alerts %s", s.Total, scope)
	if s.Total > 0 {
		fmt.Fprintf(&b, ": %d CRITICAL, %d WARNING, %d INFO",
			s.BySeverity[models.SeverityCritical],
			s.BySeverity[models.SeverityWarning],
			s.BySeverity[models.SeverityInfo])
	}
	b.WriteString(".")

	if c.incidentCount > 0 {
		fmt.Fprintf(&b, " Grouped into %d incidents.", c.incidentCount)
	}
	if c.evidence.ResolvedTarget == "" && len(s.Targets) > 0 {
		if c.lockedRiskUsed {
			fmt.Fprintf(&b, " Highest-risk target: %s (session consistent).", c.lockedRisk)
		} else {
			top := s.Targets[0]
			fmt.Fprintf(&b, " Most affected target: %s (%d alerts, %.1f%%).",
				top.Name, top.AlertCount, top.Percentage)
		}
	}
	return b.String(), false
}

func formatStatus(c *answerContext) (string, bool) {
	var b strings.Builder
	s := c.evidence.Summary
	d := c.evidence.Down

	name := c.evidence.ResolvedTarget
	if name == "" {
		name = "The fleet"
	}
	switch {
	case d.TrulyDown:
		fmt.Fprintf(&b, "%s appears to be DOWN: %d down indicators in the alert stream.", name, d.DownCount)
	case d.CriticalButRunning:
		fmt.Fprintf(&b, "%s is up but degraded: %d CRITICAL alerts with no down indicators.", name, d.CriticalCount)
	case s.Total == 0:
		fmt.Fprintf(&b, "%s shows no alerts in the analyzed window.", name)
	default:
		fmt.Fprintf(&b, "%s is healthy overall: %d alerts, none indicating an outage.", name, s.Total)
	}
	fmt.Fprintf(&b, " Risk level: %s.", c.riskLevel)
	return b.String(), false
}

func formatAnalysis(c *answerContext) (string, bool) {
	var b strings.Builder
	b.WriteString(rootCauseSection(c))

	if tp := c.evidence.Temporal; tp != nil {
		hour, count := peakHourFor(c, tp)
		fmt.Fprintf(&b, "\nPeak activity at %02d:00 with %d alerts (night %.1f%%, day %.1f%%).",
			hour, count, tp.NightPct, tp.DayPct)
		if len(tp.BurstRanges) > 0 {
			spans := make([]string, 0, len(tp.BurstRanges))
			for _, r := range tp.BurstRanges {
				spans = append(spans, r.String())
			}
			fmt.Fprintf(&b, " Burst windows: %s.", strings.Join(spans, ", "))
		}
	}
	if c.support != nil {
		if c.support.Supported {
			fmt.Fprintf(&b, "\nTelemetry corroboration: %s.", strings.Join(c.support.Reasons, "; "))
		} else {
			b.WriteString("\nNo abnormal telemetry found around the alerts (weaker signal).")
		}
	}
	fmt.Fprintf(&b, "\nRisk level: %s.", c.riskLevel)

	return withRequestedActions(c, b.String())
}

func formatPrediction(c *answerContext) (string, bool) {
	var b strings.Builder
	s := c.evidence.Summary

	fmt.Fprintf(&b, "Risk assessment: %s (%d CRITICAL alerts in scope).", c.riskLevel, s.CriticalCount)
	b.WriteString("\n" + rootCauseSection(c))

	if tp := c.evidence.Temporal; tp != nil && tp.Total > 0 {
		hour, _ := peakHourFor(c, tp)
		fmt.Fprintf(&b, "\nIf the pattern holds, expect elevated alert volume around %02d:00.", hour)
	}
	return withRequestedActions(c, b.String())
}

func formatAction(c *answerContext) (string, bool) {
	var b strings.Builder
	b.WriteString(rootCauseSection(c))
	b.WriteString("\n\nRecommended actions:")
	writeActions(&b, c.actions)
	return b.String(), true
}

// withRequestedActions appends action steps to an analysis or prediction
// answer only when the question explicitly asked for them.
func withRequestedActions(c *answerContext, text string) (string, bool) {
	if !c.classification.WantsActions {
		return text, false
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nRequested actions:")
	writeActions(&b, c.actions)
	return b.String(), true
}

func writeActions(b *strings.Builder, actions []models.ActionGroup) {
	for _, group := range actions {
		fmt.Fprintf(b, "\n%s [%s]", group.Cause, group.Urgency)
		if group.AbstractCause != "" && group.AbstractCause != group.Cause {
			fmt.Fprintf(b, " (%s)", group.AbstractCause)
		}
		for _, step := range group.Steps {
			fmt.Fprintf(b, "\n  - %s", step)
		}
	}
}

func rootCauseSection(c *answerContext) string {
	if c.lockedUsed && c.lockedCause != "" {
		return fmt.Sprintf("Root cause: %s (session consistent).", c.lockedCause)
	}
	if len(c.causeList) == 0 {
		return "No dominant root cause could be computed from the available alerts."
	}
	top := c.causeList[0]
	switch top.Band {
	case models.BandHigh:
		return fmt.Sprintf("Primary root cause: %s -> %s (score %.3f, %d occurrences).",
			top.ErrorType, top.AbstractCause, top.Score, top.Count)
	case models.BandMedium:
		return fmt.Sprintf("Inferred root cause (medium confidence): %s -> %s (%d occurrences).",
			top.ErrorType, top.AbstractCause, top.Count)
	default:
		if top.Count >= 10 {
			return fmt.Sprintf("Likely root cause (low confidence): %s -> %s.",
				top.ErrorType, top.AbstractCause)
		}
		return "Insufficient evidence to name a root cause (fewer than 10 matching alerts)."
	}
}

// blendConfidence derives the answer confidence from evidence strength,
// capped below certainty.
func blendConfidence(c *answerContext) float64 {
	confidence := 0.30
	if c.evidence.Summary.Total > 0 {
		confidence += 0.20
	}
	if len(c.causeList) > 0 {
		confidence += 0.15
		switch c.causeList[0].Band {
		case models.BandHigh:
			confidence += 0.15
		case models.BandMedium:
			confidence += 0.08
		}
	}
	if c.evidence.Temporal != nil {
		confidence += 0.10
	}
	if c.support != nil && c.support.Supported {
		confidence += 0.05
	}
	if c.evidence.Widened {
		confidence -= 0.10
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}

// ConfidenceLabel maps a blended confidence onto its operator-facing label.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.85:
		return "HIGH"
	case confidence >= 0.60:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func buildEvidenceLines(c *answerContext) []string {
	var lines []string
	s := c.evidence.Summary
	lines = append(lines, fmt.Sprintf("%d alerts analyzed (%d CRITICAL)", s.Total, s.CriticalCount))
	if c.incidentCount > 0 {
		lines = append(lines, fmt.Sprintf("%d incidents after temporal grouping", c.incidentCount))
		if c.incidentSpanMinutes >= 1 {
			lines = append(lines, fmt.Sprintf("longest incident spans %.0f minutes", c.incidentSpanMinutes))
		}
	}
	if len(c.causeList) > 0 {
		lines = append(lines, c.causeList[0].Justification)
	}
	if tp := c.evidence.Temporal; tp != nil {
		hour, count := peakHourFor(c, tp)
		lines = append(lines, fmt.Sprintf("peak hour %02d:00 (%d alerts)", hour, count))
	}
	if c.support != nil && c.support.Supported {
		lines = append(lines, "corroborated: "+strings.Join(c.support.Reasons, "; "))
	}
	if c.evidence.Widened {
		lines = append(lines, "widened: "+c.evidence.WideningReason)
	}
	return lines
}
