package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/oraclewatch/oem-insight/internal/models"
	"github.com/oraclewatch/oem-insight/internal/normalize"
	"github.com/oraclewatch/oem-insight/internal/utils"
)

// CoreClient wraps the alert store's query APIs. It is the only place raw
// wire records are parsed: malformed timestamps and noise targets are
// dropped here and never reach the analysis core.
type CoreClient struct {
	baseURL       string
	alertsPath    string
	metricsPath   string
	incidentsPath string
	targetsPath   string
	httpClient    *http.Client
	norm          *normalize.Normalizer
	logger        *slog.Logger
	attempts      uint
}

// NewCoreClient constructs a client targeting the configured alert store.
func NewCoreClient(baseURL string, timeout time.Duration, attempts uint, norm *normalize.Normalizer, logger *slog.Logger) *CoreClient {
	if norm == nil {
		norm = normalize.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if attempts == 0 {
		attempts = 3
	}
	return &CoreClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		alertsPath:    "/api/v1/alerts/query",
		metricsPath:   "/api/v1/metrics/query",
		incidentsPath: "/api/v1/incidents/query",
		targetsPath:   "/api/v1/targets",
		httpClient:    &http.Client{Timeout: timeout},
		norm:          norm,
		logger:        logger,
		attempts:      attempts,
	}
}

type alertRecord struct {
	Timestamp    string `json:"timestamp"`
	Target       string `json:"target"`
	TargetType   string `json:"target_type"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	IssueType    string `json:"issue_type"`
	DisplayCause string `json:"display_cause"`
}

// FetchAlerts queries the store for alerts, optionally target-scoped.
func (c *CoreClient) FetchAlerts(ctx context.Context, target string, window models.TimeRange) ([]models.Alert, error) {
	if c == nil || c.baseURL == "" {
		return nil, utils.NewAppError("repo.FetchAlerts", "core client not configured", nil)
	}

	payload := queryPayload(target, window)
	var response struct {
		Alerts []alertRecord `json:"alerts"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.alertsPath), payload, &response); err != nil {
		return nil, fmt.Errorf("alerts request failed: %w", err)
	}

	alerts := make([]models.Alert, 0, len(response.Alerts))
	dropped := 0
	for _, rec := range response.Alerts {
		canonical, ok := c.norm.Normalize(rec.Target)
		if !ok {
			dropped++
			continue
		}
		ts, err := utils.ParseAlertTime(rec.Timestamp)
		if err != nil {
			dropped++
			continue
		}
		alerts = append(alerts, models.Alert{
			Timestamp:    ts,
			Target:       canonical,
			TargetType:   rec.TargetType,
			Severity:     models.ParseSeverity(strings.ToUpper(rec.Severity)),
			Message:      rec.Message,
			IssueType:    rec.IssueType,
			DisplayCause: rec.DisplayCause,
		})
	}
	if dropped > 0 {
		c.logger.Debug("dropped malformed alert records", slog.Int("count", dropped))
	}
	return alerts, nil
}

// FetchMetrics queries the store for numeric telemetry samples.
func (c *CoreClient) FetchMetrics(ctx context.Context, target string, window models.TimeRange) ([]models.MetricSample, error) {
	if c == nil || c.baseURL == "" {
		return nil, utils.NewAppError("repo.FetchMetrics", "core client not configured", nil)
	}

	payload := queryPayload(target, window)
	var response struct {
		Samples []struct {
			Timestamp string  `json:"timestamp"`
			Target    string  `json:"target"`
			Metric    string  `json:"metric_name"`
			Value     float64 `json:"value"`
		} `json:"samples"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.metricsPath), payload, &response); err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}

	samples := make([]models.MetricSample, 0, len(response.Samples))
	for _, rec := range response.Samples {
		canonical, ok := c.norm.Normalize(rec.Target)
		if !ok {
			continue
		}
		ts, err := utils.ParseAlertTime(rec.Timestamp)
		if err != nil {
			continue
		}
		samples = append(samples, models.MetricSample{
			Timestamp: ts,
			Target:    canonical,
			Metric:    rec.Metric,
			Value:     rec.Value,
		})
	}
	return samples, nil
}

// FetchIncidents queries the store for pre-aggregated incidents.
func (c *CoreClient) FetchIncidents(ctx context.Context, target string, window models.TimeRange) ([]models.Incident, error) {
	if c == nil || c.baseURL == "" {
		return nil, utils.NewAppError("repo.FetchIncidents", "core client not configured", nil)
	}

	payload := queryPayload(target, window)
	var response struct {
		Incidents []struct {
			Target       string `json:"target"`
			IssueType    string `json:"issue_type"`
			Severity     string `json:"severity"`
			Count        int    `json:"count"`
			FirstSeen    string `json:"first_seen"`
			LastSeen     string `json:"last_seen"`
			DisplayCause string `json:"display_cause"`
		} `json:"incidents"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.incidentsPath), payload, &response); err != nil {
		return nil, fmt.Errorf("incidents request failed: %w", err)
	}

	incidents := make([]models.Incident, 0, len(response.Incidents))
	for _, rec := range response.Incidents {
		canonical, ok := c.norm.Normalize(rec.Target)
		if !ok {
			continue
		}
		first, err := utils.ParseAlertTime(rec.FirstSeen)
		if err != nil {
			continue
		}
		last, err := utils.ParseAlertTime(rec.LastSeen)
		if err != nil {
			continue
		}
		incidents = append(incidents, models.Incident{
			Target:       canonical,
			IssueType:    rec.IssueType,
			Severity:     models.ParseSeverity(strings.ToUpper(rec.Severity)),
			Count:        rec.Count,
			FirstSeen:    first,
			LastSeen:     last,
			DisplayCause: rec.DisplayCause,
		})
	}
	return incidents, nil
}

// FetchTargets retrieves the monitored target inventory.
func (c *CoreClient) FetchTargets(ctx context.Context) ([]models.TargetInfo, error) {
	if c == nil || c.baseURL == "" {
		return nil, utils.NewAppError("repo.FetchTargets", "core client not configured", nil)
	}

	var response struct {
		Targets []struct {
			Name   string `json:"name"`
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"targets"`
	}
	if err := c.getJSON(ctx, c.resolvePath(c.targetsPath), &response); err != nil {
		return nil, fmt.Errorf("targets request failed: %w", err)
	}

	targets := make([]models.TargetInfo, 0, len(response.Targets))
	for _, rec := range response.Targets {
		canonical, ok := c.norm.Normalize(rec.Name)
		if !ok {
			continue
		}
		targets = append(targets, models.TargetInfo{Name: canonical, Type: rec.Type, Status: rec.Status})
	}
	return targets, nil
}

func queryPayload(target string, window models.TimeRange) map[string]any {
	payload := map[string]any{
		"start": window.Start.Format(time.RFC3339),
		"end":   window.End.Format(time.RFC3339),
	}
	if target != "" {
		payload["target"] = target
	}
	return payload
}

func (c *CoreClient) resolvePath(p string) string {
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *CoreClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.doWithRetry(ctx, func(reqCtx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, out)
}

func (c *CoreClient) getJSON(ctx context.Context, endpoint string, out any) error {
	return c.doWithRetry(ctx, func(reqCtx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	}, out)
}

// doWithRetry executes the request with bounded exponential backoff.
// Transient transport errors and 5xx responses are retried; anything else
// fails immediately via the terminal error slot.
func (c *CoreClient) doWithRetry(ctx context.Context, build func(context.Context) (*http.Request, error), out any) error {
	var terminal error
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(c.attempts),
	)
	retryErr := r.Do(func() error {
		req, err := build(ctx)
		if err != nil {
			terminal = err
			return nil
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("core store returned %s", resp.Status)
		}
		if resp.StatusCode != http.StatusOK {
			terminal = fmt.Errorf("core store returned %s", resp.Status)
			return nil
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			terminal = fmt.Errorf("decode response: %w", err)
			return nil
		}
		return nil
	})
	if terminal != nil {
		return terminal
	}
	return retryErr
}
