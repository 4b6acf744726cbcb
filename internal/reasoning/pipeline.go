package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oraclewatch/oem-insight/internal/causes"
	"github.com/oraclewatch/oem-insight/internal/corroborate"
	"github.com/oraclewatch/oem-insight/internal/incidents"
	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/normalize"
	"github.com/oraclewatch/oem-insight/internal/session"
	"github.com/oraclewatch/oem-insight/internal/utils"
)

const unableToProcess = "I was unable to process that question. Please try rephrasing it."

// DataSource defines the alert store behaviour the pipeline consumes.
type DataSource interface {
	FetchAlerts(ctx context.Context, target string, window models.TimeRange) ([]models.Alert, error)
	FetchMetrics(ctx context.Context, target string, window models.TimeRange) ([]models.MetricSample, error)
	FetchIncidents(ctx context.Context, target string, window models.TimeRange) ([]models.Incident, error)
	FetchTargets(ctx context.Context) ([]models.TargetInfo, error)
}

// Classifier turns free question text into an intent plus structured
// entities. The pipeline never parses question text itself.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Classification, error)
}

// Sinks receives fire-and-forget analysis artifacts. Failures are logged
// and swallowed.
type Sinks interface {
	PersistPattern(ctx context.Context, cause models.CandidateCause) error
	PersistAnomaly(ctx context.Context, target string, support models.Support) error
	LogAction(ctx context.Context, sessionID string, group models.ActionGroup) error
}

// Pipeline runs the sequential reasoning chain for one question: intent
// gate, hypothesis, evidence, reasoning, decision, action mapping, format.
type Pipeline struct {
	logger     *slog.Logger
	source     DataSource
	classifier Classifier
	sinks      Sinks
	sessions   *session.Store
	norm       *normalize.Normalizer
	scorer     *causes.Scorer
	aggregator *incidents.Aggregator
	indexes    *corroborate.CachedBuilder
	lookback   time.Duration
}

// NewPipeline constructs the reasoning pipeline. sinks may be nil.
func NewPipeline(
	logger *slog.Logger,
	source DataSource,
	classifier Classifier,
	sinks Sinks,
	sessions *session.Store,
	norm *normalize.Normalizer,
	indexes *corroborate.CachedBuilder,
	lookback time.Duration,
	incidentGap time.Duration,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if norm == nil {
		norm = normalize.New(nil)
	}
	if sessions == nil {
		sessions = session.NewStore(nil, logger)
	}
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	if incidentGap <= 0 {
		incidentGap = incidents.DefaultGap
	}
	return &Pipeline{
		logger:     logger,
		source:     source,
		classifier: classifier,
		sinks:      sinks,
		sessions:   sessions,
		norm:       norm,
		scorer:     causes.NewScorer(norm),
		aggregator: incidents.NewAggregator(incidentGap),
		indexes:    indexes,
		lookback:   lookback,
	}
}

// Process answers one question within a session. It never returns an error
// for degraded inputs: missing data, unknown targets and sparse evidence all
// produce well-formed answers, and unexpected faults collapse into a single
// "unable to process" reply.
func (p *Pipeline) Process(ctx context.Context, question, sessionID string) (answer models.Answer) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("reasoning pipeline panic", slog.Any("panic", r))
			answer = degradedAnswer()
		}
	}()

	classification, err := p.classifier.Classify(ctx, question)
	if err != nil {
		p.logger.Warn("classifier unavailable", slog.Any("error", err))
		return degradedAnswer()
	}

	state := p.sessions.Get(ctx, sessionID)
	state.RecordQuestion()

	qt := models.QuestionTypeFor(classification.Intent)

	// Routing gate: inventory questions bypass alert analysis entirely.
	if classification.Intent == models.IntentEntityCount || classification.Intent == models.IntentEntityList {
		return p.answerInventory(ctx, question, classification)
	}

	window := p.resolveWindow(classification)
	target := classification.Entities.Target

	alerts, err := p.source.FetchAlerts(ctx, "", window)
	if err != nil {
		p.logger.Error("fetch alerts failed", slog.Any("error", err))
		return degradedAnswer()
	}
	if len(alerts) == 0 {
		return models.Answer{
			Text:            "Alert data is not available for the requested window. Load alert data and try again.",
			Intent:          classification.Intent,
			QuestionType:    qt,
			Confidence:      0.2,
			ConfidenceLabel: "LOW",
			Evidence:        []string{"no alerts in scope"},
			CreatedAt:       time.Now().UTC(),
		}
	}

	hypothesis := hypothesisFor(classification.Intent, target)
	p.logger.Debug("hypothesis formed", slog.String("hypothesis", hypothesis))

	ev := gatherEvidence(alerts, target, p.norm)
	if hw := classification.Entities.Hours; hw != nil && ev.Temporal != nil {
		if inWindow := countHours(ev.Temporal, *hw); inWindow == 0 {
			ev.Widened = true
			ev.WideningReason = fmt.Sprintf("No alerts between %02d:00 and %02d:00; showing the full temporal distribution",
				hw.StartHour, hw.EndHour)
		}
	}
	if ev.Temporal != nil {
		ev.Corrections = CorrectAssumptions(question, *ev.Temporal)
	}

	causeList := p.scorer.Score(ev.Alerts, "")
	lockedCause, lockedUsed := state.LockedRootCause(ev.ResolvedTarget)
	lockedPeak, lockedPeakUsed := state.LockedPeakHour()
	lockedRisk, lockedRiskUsed := state.LockedHighestRisk()

	incidentList := p.incidents(ctx, ev, window)
	support := p.corroborate(ctx, ev, window)

	riskLevel := riskFor(ev.Summary.CriticalCount)
	actionGroups := MapActions(causeList, riskLevel, ev.Temporal)

	c := &answerContext{
		question:            question,
		classification:      classification,
		evidence:            ev,
		causeList:           causeList,
		riskLevel:           riskLevel,
		lockedCause:         lockedCause,
		lockedUsed:          lockedUsed,
		lockedPeak:          lockedPeak,
		lockedPeakUsed:      lockedPeakUsed,
		lockedRisk:          lockedRisk,
		lockedRiskUsed:      lockedRiskUsed,
		actions:             actionGroups,
		incidentCount:       len(incidentList),
		incidentSpanMinutes: longestIncidentMinutes(incidentList),
		support:             support,
	}

	text, actionsIncluded := renderAnswer(qt, c)
	confidence := blendConfidence(c)

	p.updateSession(ctx, state, sessionID, ev, causeList, riskLevel)
	p.notifySinks(ctx, sessionID, ev, causeList, support, actionGroups, actionsIncluded)

	return models.Answer{
		Text:            text,
		Target:          ev.ResolvedTarget,
		Intent:          classification.Intent,
		QuestionType:    qt,
		Confidence:      confidence,
		ConfidenceLabel: ConfidenceLabel(confidence),
		Evidence:        buildEvidenceLines(c),
		ActionsIncluded: actionsIncluded,
		Widened:         ev.Widened,
		WideningReason:  ev.WideningReason,
		CreatedAt:       time.Now().UTC(),
	}
}

// Reset clears all session-locked state for the session id.
func (p *Pipeline) Reset(ctx context.Context, sessionID string) {
	p.sessions.Reset(ctx, sessionID)
}

func (p *Pipeline) resolveWindow(classification models.Classification) models.TimeRange {
	if w := classification.Entities.Window; w != nil && !w.Start.IsZero() {
		return *w
	}
	now := time.Now().UTC()
	return models.TimeRange{Start: now.Add(-p.lookback), End: now}
}

// answerInventory serves ENTITY_COUNT and ENTITY_LIST from inventory
// metadata only.
func (p *Pipeline) answerInventory(ctx context.Context, question string, classification models.Classification) models.Answer {
	targets, err := p.source.FetchTargets(ctx)
	if err != nil {
		p.logger.Error("fetch targets failed", slog.Any("error", err))
		return degradedAnswer()
	}

	byType := make(map[string]int)
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		byType[t.Type]++
		names = append(names, t.Name)
	}
	sort.Strings(names)

	var text string
	if classification.Intent == models.IntentEntityCount {
		text = fmt.Sprintf("%d targets are monitored", len(targets))
		if len(byType) > 1 {
			parts := make([]string, 0, len(byType))
			for _, typ := range sortedKeys(byType) {
				parts = append(parts, fmt.Sprintf("%d %s", byType[typ], typ))
			}
			text += " (" + strings.Join(parts, ", ") + ")"
		}
		text += "."
	} else {
		const maxListed = 25
		listed := names
		if len(listed) > maxListed {
			listed = listed[:maxListed]
		}
		text = fmt.Sprintf("Monitored targets (%d): %s", len(names), strings.Join(listed, ", "))
		if len(names) > maxListed {
			text += fmt.Sprintf(" and %d more", len(names)-maxListed)
		}
		text += "."
	}

	return models.Answer{
		Text:            text,
		Intent:          classification.Intent,
		QuestionType:    models.TypeFact,
		Confidence:      0.95,
		ConfidenceLabel: "HIGH",
		Evidence:        []string{fmt.Sprintf("%d targets in inventory", len(targets))},
		CreatedAt:       time.Now().UTC(),
	}
}

// incidents prefers the store's pre-aggregated incidents for the resolved
// scope, rebuilding from the evidence alerts when the store has none.
func (p *Pipeline) incidents(ctx context.Context, ev *Evidence, window models.TimeRange) []models.Incident {
	stored, err := p.source.FetchIncidents(ctx, ev.ResolvedTarget, window)
	if err != nil {
		p.logger.Debug("fetch incidents failed, rebuilding from alerts", slog.Any("error", err))
	}
	if len(stored) > 0 {
		return stored
	}
	return p.aggregator.Build(ev.Alerts)
}

func longestIncidentMinutes(list []models.Incident) float64 {
	longest := 0.0
	for _, inc := range list {
		if m := utils.DurationMinutes(inc.FirstSeen, inc.LastSeen); m > longest {
			longest = m
		}
	}
	return longest
}

// corroborate checks the most recent CRITICAL alert of the resolved scope
// against the telemetry index. Metric fetch failures degrade to no
// corroboration rather than failing the question.
func (p *Pipeline) corroborate(ctx context.Context, ev *Evidence, window models.TimeRange) *models.Support {
	var candidate *models.Alert
	for i := range ev.Alerts {
		a := &ev.Alerts[i]
		if a.Severity != models.SeverityCritical {
			continue
		}
		if candidate == nil || a.Timestamp.After(candidate.Timestamp) {
			candidate = a
		}
	}
	if candidate == nil || p.indexes == nil {
		return nil
	}

	scope := ev.ResolvedTarget
	if scope == "" {
		scope = "global"
	}
	idx := p.indexes.Get(scope, window.Start, func() *corroborate.Index {
		samples, err := p.source.FetchMetrics(ctx, ev.ResolvedTarget, window)
		if err != nil {
			p.logger.Warn("fetch metrics failed", slog.Any("error", err))
			samples = nil
		}
		return corroborate.Build(samples, ev.Alerts, p.indexes.Thresholds())
	})

	support := idx.Corroborate(*candidate)
	return &support
}

func (p *Pipeline) updateSession(ctx context.Context, state *session.State, sessionID string, ev *Evidence, causeList []models.CandidateCause, riskLevel string) {
	if len(causeList) > 0 && causeList[0].Count >= causes.MinCountForCause {
		top := causeList[0]
		if top.AbstractCause != "" {
			state.LockRootCause(top.AbstractCause, ev.ResolvedTarget)
			state.AddDominantCause(top.AbstractCause)
		} else {
			state.LockRootCause(top.ErrorType, ev.ResolvedTarget)
		}
	}
	if ev.Temporal != nil {
		state.LockPeakHour(ev.Temporal.PeakHour)
	}
	if len(ev.Summary.Targets) > 0 && ev.Summary.Targets[0].CriticalCount > 100 {
		state.LockHighestRisk(ev.Summary.Targets[0].Name)
	}
	p.sessions.Persist(ctx, sessionID)
}

func (p *Pipeline) notifySinks(ctx context.Context, sessionID string, ev *Evidence, causeList []models.CandidateCause, support *models.Support, actions []models.ActionGroup, actionsIncluded bool) {
	if p.sinks == nil {
		return
	}
	if len(causeList) > 0 {
		if err := p.sinks.PersistPattern(ctx, causeList[0]); err != nil {
			p.logger.Warn("persist pattern failed", slog.Any("error", err))
		}
	}
	if support != nil && !support.Supported {
		if err := p.sinks.PersistAnomaly(ctx, ev.ResolvedTarget, *support); err != nil {
			p.logger.Warn("persist anomaly failed", slog.Any("error", err))
		}
	}
	if actionsIncluded {
		for _, group := range actions {
			if err := p.sinks.LogAction(ctx, sessionID, group); err != nil {
				p.logger.Warn("log action failed", slog.Any("error", err))
				break
			}
		}
	}
}

func hypothesisFor(intent models.Intent, target string) string {
	scope := target
	if scope == "" {
		scope = "the fleet"
	}
	switch intent {
	case models.IntentHealth:
		return fmt.Sprintf("current state of %s, need the most recent alerts", scope)
	case models.IntentRootCause:
		return fmt.Sprintf("why %s is failing, need error codes and patterns", scope)
	case models.IntentTimeBased:
		return "time-specific analysis, need the temporal distribution"
	case models.IntentFrequency:
		return "frequency patterns, need hourly aggregation"
	case models.IntentPredictive:
		return "failure prediction, need trend and risk analysis"
	case models.IntentRecommendation:
		return "operator actions, need the root cause first"
	case models.IntentComparison:
		return "side-by-side comparison of targets"
	case models.IntentRiskPosture:
		return "environment-wide risk assessment"
	case models.IntentFactual:
		return "specific facts, need a direct data lookup"
	default:
		return "understand the question and locate relevant data"
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// riskFor maps the critical alert volume onto a risk tier.
func riskFor(criticalCount int) string {
	switch {
	case criticalCount > 100000:
		return "CRITICAL"
	case criticalCount > 10000:
		return "HIGH"
	case criticalCount > 1000:
		return "ELEVATED"
	default:
		return "MODERATE"
	}
}

func countHours(tp *TemporalPatterns, hw models.HourWindow) int {
	start, end := hw.StartHour, hw.EndHour
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return tp.Total
	}
	total := 0
	for h := start; ; h = (h + 1) % 24 {
		total += tp.Hourly[h]
		if h == end {
			break
		}
	}
	return total
}

// IsDegraded reports whether the answer is the generic failure reply rather
// than a real analysis result.
func IsDegraded(a models.Answer) bool {
	return a.Intent == models.IntentUnknown && a.Text == unableToProcess
}

func degradedAnswer() models.Answer {
	return models.Answer{
		Text:            unableToProcess,
		QuestionType:    models.TypeFact,
		Intent:          models.IntentUnknown,
		Confidence:      0.1,
		ConfidenceLabel: "LOW",
		CreatedAt:       time.Now().UTC(),
	}
}
