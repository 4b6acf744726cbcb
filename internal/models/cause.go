package models

// ConfidenceBand classifies how much trust a computed root cause deserves,
// derived from score and sample size.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "HIGH"
	BandMedium ConfidenceBand = "MEDIUM"
	BandLow    ConfidenceBand = "LOW"
	BandNone   ConfidenceBand = "NONE"
)

// ScoreBreakdown carries the sub-scores backing a candidate cause. All
// components are in [0,1].
type ScoreBreakdown struct {
	Frequency    float64
	Recency      float64
	Repetition   float64
	BurstDensity float64
}

// CandidateCause is one ranked, weighted root-cause candidate for a
// population of alerts. Stateless: recomputed on every scorer invocation.
type CandidateCause struct {
	ErrorType     string
	AbstractCause string
	Count         int
	CriticalCount int
	Score         float64
	Breakdown     ScoreBreakdown
	Band          ConfidenceBand
	Justification string
}

// Support records the outcome of corroborating one alert against telemetry.
type Support struct {
	Supported      bool
	ByAlertPattern bool
	Reasons        []string
}
