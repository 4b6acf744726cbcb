package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/utils"
)

// QuestionAnswerer is the service surface the HTTP layer depends on.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question, sessionID string) models.Answer
	ResetSession(ctx context.Context, sessionID string) error
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type answerResponse struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	Target          string    `json:"target,omitempty"`
	Intent          string    `json:"intent"`
	QuestionType    string    `json:"question_type"`
	Confidence      float64   `json:"confidence"`
	ConfidenceLabel string    `json:"confidence_label"`
	Evidence        []string  `json:"evidence,omitempty"`
	ActionsIncluded bool      `json:"actions_included"`
	Widened         bool      `json:"widened,omitempty"`
	WideningReason  string    `json:"widening_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter wires the HTTP API around the question service.
func NewRouter(logger *slog.Logger, svc QuestionAnswerer) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{logger: logger, svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", h.ask)
		r.Post("/sessions/{sessionID}/reset", h.resetSession)
	})
	return r
}

type handlers struct {
	logger *slog.Logger
	svc    QuestionAnswerer
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	answer := h.svc.Ask(r.Context(), req.Question, req.SessionID)
	writeJSON(w, http.StatusOK, toAnswerResponse(answer))
}

func (h *handlers) resetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session id is required"})
		return
	}
	if err := h.svc.ResetSession(r.Context(), sessionID); err != nil {
		if appErr, ok := utils.AsAppError(err); ok && appErr.Err == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: appErr.Msg})
			return
		}
		h.logger.Error("session reset failed", slog.String("session_id", sessionID), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to reset session"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "session_id": sessionID})
}

func toAnswerResponse(a models.Answer) answerResponse {
	return answerResponse{
		ID:              a.ID,
		Text:            a.Text,
		Target:          a.Target,
		Intent:          string(a.Intent),
		QuestionType:    string(a.QuestionType),
		Confidence:      a.Confidence,
		ConfidenceLabel: a.ConfidenceLabel,
		Evidence:        a.Evidence,
		ActionsIncluded: a.ActionsIncluded,
		Widened:         a.Widened,
		WideningReason:  a.WideningReason,
		CreatedAt:       a.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
