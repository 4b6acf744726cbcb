package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels questions answered normally.
	OutcomeSuccess = "success"
	// OutcomeError labels questions that degraded (pipeline or dependency issues).
	OutcomeError = "error"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oem_insight",
			Name:      "questions_total",
			Help:      "Total number of questions handled, partitioned by outcome and question type.",
		},
		[]string{"outcome", "question_type"},
	)

	questionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "oem_insight",
			Name:      "question_seconds",
			Help:      "Question handling latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
	)

	wideningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "oem_insight",
			Name:      "widenings_total",
			Help:      "Number of answers produced after widening the evidence scope.",
		},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oem_insight",
			Name:      "active_sessions",
			Help:      "Number of sessions currently held in memory.",
		},
	)
)

// Register attaches insight-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		questionsTotal,
		questionDurationSeconds,
		wideningsTotal,
		activeSessions,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuestion records a question duration with outcome and type labels.
func ObserveQuestion(duration time.Duration, outcome, questionType string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	if questionType == "" {
		questionType = "unknown"
	}
	questionsTotal.WithLabelValues(label, questionType).Inc()
	if duration < 0 {
		duration = 0
	}
	questionDurationSeconds.Observe(duration.Seconds())
}

// ObserveWidening counts an answer produced from widened evidence.
func ObserveWidening() {
	wideningsTotal.Inc()
}

// SetActiveSessions reports the current session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
