package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oraclewatch/oem-insight/internal/models"
)

// SinkClient delivers analysis artifacts to the persistence collaborator.
// Every method is fire-and-forget from the pipeline's point of view: errors
// are returned for logging but no caller treats them as fatal.
type SinkClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSinkClient constructs a sink client. An empty baseURL disables
// delivery; every call then reports a configuration error the caller logs
// and swallows.
func NewSinkClient(baseURL string, timeout time.Duration) *SinkClient {
	return &SinkClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PersistPattern stores a computed root-cause candidate.
func (s *SinkClient) PersistPattern(ctx context.Context, cause models.CandidateCause) error {
	return s.post(ctx, "/api/v1/patterns", map[string]any{
		"error_type":     cause.ErrorType,
		"abstract_cause": cause.AbstractCause,
		"count":          cause.Count,
		"score":          cause.Score,
		"band":           string(cause.Band),
	})
}

// PersistAnomaly records an alert that telemetry could not corroborate.
func (s *SinkClient) PersistAnomaly(ctx context.Context, target string, support models.Support) error {
	return s.post(ctx, "/api/v1/anomalies", map[string]any{
		"target":           target,
		"supported":        support.Supported,
		"by_alert_pattern": support.ByAlertPattern,
		"reasons":          support.Reasons,
	})
}

// LogAction records an action recommendation handed to an operator.
func (s *SinkClient) LogAction(ctx context.Context, sessionID string, group models.ActionGroup) error {
	return s.post(ctx, "/api/v1/actions", map[string]any{
		"session_id": sessionID,
		"cause":      group.Cause,
		"urgency":    group.Urgency,
		"steps":      group.Steps,
	})
}

func (s *SinkClient) post(ctx context.Context, path string, payload any) error {
	if s == nil || s.baseURL == "" {
		return fmt.Errorf("sink client not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sink returned %s", resp.Status)
	}
	return nil
}
