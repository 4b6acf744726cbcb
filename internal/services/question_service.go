package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oraclewatch/oem-insight/internal/metrics"
	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/reasoning"
	"github.com/oraclewatch/oem-insight/internal/session"
	"github.com/oraclewatch/oem-insight/internal/utils"
)

// QuestionService fronts the reasoning pipeline for the transport layer. It
// owns answer identifiers, latency bookkeeping and metrics so the pipeline
// stays transport-agnostic.
type QuestionService struct {
	logger    *slog.Logger
	pipeline  *reasoning.Pipeline
	sessions  *session.Store
	latencies *utils.LatencyTracker
}

// NewQuestionService constructs the service facade.
func NewQuestionService(logger *slog.Logger, pipeline *reasoning.Pipeline, sessions *session.Store) *QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{
		logger:    logger,
		pipeline:  pipeline,
		sessions:  sessions,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Ask answers one question within a session. The session identifier may be
// empty, in which case a fresh session is created for the single question.
func (s *QuestionService) Ask(ctx context.Context, question, sessionID string) models.Answer {
	question = strings.TrimSpace(question)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	answer := s.pipeline.Process(ctx, question, sessionID)
	duration := time.Since(start)

	answer.ID = uuid.NewString()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}

	outcome := metrics.OutcomeSuccess
	if reasoning.IsDegraded(answer) {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveQuestion(duration, outcome, string(answer.QuestionType))
	if answer.Widened {
		metrics.ObserveWidening()
	}
	if s.sessions != nil {
		metrics.SetActiveSessions(s.sessions.Active())
	}

	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("question latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	return answer
}

// ResetSession clears accumulated session state.
func (s *QuestionService) ResetSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return utils.NewAppError("services.ResetSession", "session id is required", nil)
	}
	s.pipeline.Reset(ctx, sessionID)
	if s.sessions != nil {
		metrics.SetActiveSessions(s.sessions.Active())
	}
	return nil
}

// LatencyP95 returns the current p95 question latency.
func (s *QuestionService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
