package causes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/normalize"
)

// Blend weights. Closed-form statistics only: every sub-score and the blend
// stay in [0,1].
const (
	weightFrequency    = 0.35
	weightRecency      = 0.25
	weightRepetition   = 0.20
	weightBurstDensity = 0.20

	// burstReference normalizes the inverse mean inter-arrival gap to a
	// one-hour reference.
	burstReference = 3600.0

	// defaultBurst applies when fewer than two timestamps exist.
	defaultBurst = 0.3

	// MinCountForCause is the floor below which the scorer declines to name
	// an inferred cause.
	MinCountForCause = 10
)

var (
	oraCodePattern = regexp.MustCompile(`(?i)(ORA-?\d+)`)
	oraArgPattern  = regexp.MustCompile(`(?i)ORA-?\d+\s*\[([^\]]+)\]`)
)

// Scorer computes ranked, explainable root-cause candidates from an alert
// population. Stateless relative to its input.
type Scorer struct {
	norm *normalize.Normalizer
}

// NewScorer constructs a Scorer routing target comparisons through norm.
func NewScorer(norm *normalize.Normalizer) *Scorer {
	if norm == nil {
		norm = normalize.New(nil)
	}
	return &Scorer{norm: norm}
}

// Score buckets alerts by error type and returns candidates ranked by
// blended score. target, when non-empty, strictly filters the population
// first. The ranking is a total order: score desc, count desc, error type
// asc.
func (s *Scorer) Score(alerts []models.Alert, target string) []models.CandidateCause {
	if target != "" {
		filtered := make([]models.Alert, 0, len(alerts))
		for _, a := range alerts {
			if s.norm.Equals(a.Target, target) {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	if len(alerts) == 0 {
		return nil
	}

	buckets := make(map[string][]models.Alert)
	for _, a := range alerts {
		buckets[errorTypeOf(a)] = append(buckets[errorTypeOf(a)], a)
	}

	total := len(alerts)
	candidates := make([]models.CandidateCause, 0, len(buckets))
	for errorType, bucket := range buckets {
		breakdown := scoreBucket(bucket, total)
		blended := weightFrequency*breakdown.Frequency +
			weightRecency*breakdown.Recency +
			weightRepetition*breakdown.Repetition +
			weightBurstDensity*breakdown.BurstDensity

		criticals := 0
		for _, a := range bucket {
			if a.Severity == models.SeverityCritical {
				criticals++
			}
		}

		candidates = append(candidates, models.CandidateCause{
			ErrorType:     errorType,
			AbstractCause: AbstractCause(errorType),
			Count:         len(bucket),
			CriticalCount: criticals,
			Score:         blended,
			Breakdown:     breakdown,
			Justification: justify(errorType, breakdown),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ErrorType < b.ErrorType
	})

	for i := range candidates {
		candidates[i].Band = BandFor(candidates[i].Score, candidates[i].Count)
	}
	return candidates
}

// BandFor derives the confidence band from blended score and sample size.
func BandFor(score float64, count int) models.ConfidenceBand {
	switch {
	case score >= 0.6 && count >= 100:
		return models.BandHigh
	case score >= 0.3 || count >= 50:
		return models.BandMedium
	default:
		return models.BandLow
	}
}

func scoreBucket(bucket []models.Alert, total int) models.ScoreBreakdown {
	frequency := float64(len(bucket)) / float64(total)

	timestamps := make([]int64, 0, len(bucket))
	for _, a := range bucket {
		if !a.Timestamp.IsZero() {
			timestamps = append(timestamps, a.Timestamp.Unix())
		}
	}

	// No decay model: any timestamped evidence counts as recent.
	recency := 0.5
	if len(timestamps) > 0 {
		recency = 1.0
	}

	repetition := float64(len(bucket)) / 100.0
	if repetition > 1 {
		repetition = 1
	}

	burst := defaultBurst
	if len(timestamps) > 1 {
		sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
		var gapSum float64
		for i := 1; i < len(timestamps); i++ {
			gapSum += float64(timestamps[i] - timestamps[i-1])
		}
		meanGap := gapSum / float64(len(timestamps)-1)
		if meanGap < 1 {
			meanGap = 1
		}
		burst = burstReference / meanGap
		if burst > 1 {
			burst = 1
		}
	}

	return models.ScoreBreakdown{
		Frequency:    frequency,
		Recency:      recency,
		Repetition:   repetition,
		BurstDensity: burst,
	}
}

// errorTypeOf extracts a structured error code from the message (with its
// bracketed argument when present), falling back to the display cause and
// issue type.
func errorTypeOf(a models.Alert) string {
	if m := oraCodePattern.FindString(a.Message); m != "" {
		code := strings.ToUpper(m)
		if arg := oraArgPattern.FindStringSubmatch(a.Message); arg != nil {
			return code + " [" + arg[1] + "]"
		}
		return code
	}
	if a.DisplayCause != "" {
		return a.DisplayCause
	}
	if a.IssueType != "" {
		return a.IssueType
	}
	return "OTHER"
}

// justify names the sub-scores exceeding their fixed thresholds so every
// ranking is explainable.
func justify(errorType string, b models.ScoreBreakdown) string {
	var reasons []string
	if b.Frequency > 0.5 {
		reasons = append(reasons, "accounts for the majority of errors")
	} else if b.Frequency > 0.2 {
		reasons = append(reasons, "high frequency among all errors")
	}
	if b.Recency > 0.8 {
		reasons = append(reasons, "occurred recently")
	}
	if b.Repetition > 0.7 {
		reasons = append(reasons, "repeated pattern detected")
	} else if b.Repetition > 0.3 {
		reasons = append(reasons, "multiple occurrences")
	}
	if b.BurstDensity > 0.7 {
		reasons = append(reasons, "burst pattern (clustered in time)")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "contributor to overall instability")
	}
	return errorType + ": " + strings.Join(reasons, ", ")
}
