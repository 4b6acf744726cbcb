package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/utils"
)

// ClassifierClient calls the text-understanding collaborator that turns a
// question into an intent plus structured entities. The circuit breaker
// keeps a flapping classifier from stalling every question; an open breaker
// surfaces as a classification error and the pipeline degrades.
type ClassifierClient struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClassifierClient constructs the breaker-wrapped classifier client.
func NewClassifierClient(baseURL string, timeout time.Duration) *ClassifierClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "question-classifier",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &ClassifierClient{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/v1/classify",
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

type classificationRecord struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Entities   struct {
		Target    string `json:"target"`
		Severity  string `json:"severity"`
		Code      string `json:"code"`
		Start     string `json:"start"`
		End       string `json:"end"`
		StartHour *int   `json:"start_hour"`
		EndHour   *int   `json:"end_hour"`
	} `json:"entities"`
	WantsActions bool `json:"wants_actions"`
}

// Classify sends the question text and decodes the collaborator's verdict.
func (c *ClassifierClient) Classify(ctx context.Context, text string) (models.Classification, error) {
	if c == nil || c.endpoint == "" {
		return models.Classification{}, utils.NewAppError("repo.Classify", "classifier client not configured", nil)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, text)
	})
	if err != nil {
		return models.Classification{}, fmt.Errorf("classify request failed: %w", err)
	}
	record := result.(classificationRecord)

	classification := models.Classification{
		Intent:       models.Intent(strings.ToUpper(record.Intent)),
		Confidence:   record.Confidence,
		WantsActions: record.WantsActions,
		Entities: models.Entities{
			Target:   record.Entities.Target,
			Severity: models.Severity(strings.ToUpper(record.Entities.Severity)),
			Code:     record.Entities.Code,
		},
	}
	// Entity windows are RFC3339, unlike the feed's free-form timestamps.
	if record.Entities.Start != "" && record.Entities.End != "" {
		start, serr := utils.ParseRFC3339(record.Entities.Start)
		end, eerr := utils.ParseRFC3339(record.Entities.End)
		if serr == nil && eerr == nil {
			classification.Entities.Window = &models.TimeRange{Start: start, End: end}
		}
	}
	if record.Entities.StartHour != nil && record.Entities.EndHour != nil {
		classification.Entities.Hours = &models.HourWindow{
			StartHour: *record.Entities.StartHour,
			EndHour:   *record.Entities.EndHour,
		}
	}
	return classification, nil
}

func (c *ClassifierClient) post(ctx context.Context, text string) (classificationRecord, error) {
	var record classificationRecord

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return record, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return record, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return record, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return record, fmt.Errorf("classifier returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return record, fmt.Errorf("decode response: %w", err)
	}
	return record, nil
}
