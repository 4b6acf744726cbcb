package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

type alertRecord struct {
	Timestamp    string `json:"timestamp"`
	Target       string `json:"target"`
	TargetType   string `json:"target_type"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	IssueType    string `json:"issue_type"`
	DisplayCause string `json:"display_cause"`
}

type metricSample struct {
	Timestamp string  `json:"timestamp"`
	Target    string  `json:"target"`
	Metric    string  `json:"metric_name"`
	Value     float64 `json:"value"`
}

type incidentRecord struct {
	Target       string `json:"target"`
	IssueType    string `json:"issue_type"`
	Severity     string `json:"severity"`
	Count        int    `json:"count"`
	FirstSeen    string `json:"first_seen"`
	LastSeen     string `json:"last_seen"`
	DisplayCause string `json:"display_cause"`
}

type targetRecord struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/alerts/query", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		now := time.Now().UTC()
		alerts := make([]alertRecord, 0, 64)
		for i := 0; i < 40; i++ {
			alerts = append(alerts, alertRecord{
				Timestamp:    now.Add(-time.Duration(i*13) * time.Minute).Format(time.RFC3339),
				Target:       "MIDEVSTB_db",
				TargetType:   "oracle_database",
				Severity:     "CRITICAL",
				Message:      "ORA-00600: internal error code, arguments: [kcratr_nab_less_than_odr]",
				IssueType:    "INTERNAL_ERROR",
				DisplayCause: "Internal engine instability",
			})
		}
		for i := 0; i < 12; i++ {
			alerts = append(alerts, alertRecord{
				Timestamp:    now.Add(-time.Duration(i*47) * time.Minute).Format(time.RFC3339),
				Target:       "PRODDB01",
				TargetType:   "oracle_database",
				Severity:     "WARNING",
				Message:      "Tablespace PSAPSR3 is 91 percent full",
				IssueType:    "TABLESPACE_SPACE",
				DisplayCause: "Storage / tablespace capacity exhaustion",
			})
		}
		writeJSON(w, map[string]any{"alerts": alerts})
	})

	mux.HandleFunc("/api/v1/metrics/query", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		now := time.Now().UTC()
		writeJSON(w, map[string]any{
			"samples": []metricSample{
				{Timestamp: now.Add(-10 * time.Minute).Format(time.RFC3339), Target: "MIDEVSTB_db", Metric: "cpu_utilization", Value: 93.5},
				{Timestamp: now.Add(-8 * time.Minute).Format(time.RFC3339), Target: "MIDEVSTB_db", Metric: "memory_utilization", Value: 88.1},
				{Timestamp: now.Add(-6 * time.Minute).Format(time.RFC3339), Target: "PRODDB01", Metric: "storage_used_pct", Value: 91.0},
			},
		})
	})

	mux.HandleFunc("/api/v1/incidents/query", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		now := time.Now().UTC()
		writeJSON(w, map[string]any{
			"incidents": []incidentRecord{
				{
					Target:       "MIDEVSTB_db",
					IssueType:    "INTERNAL_ERROR",
					Severity:     "CRITICAL",
					Count:        40,
					FirstSeen:    now.Add(-9 * time.Hour).Format(time.RFC3339),
					LastSeen:     now.Format(time.RFC3339),
					DisplayCause: "Internal engine instability",
				},
			},
		})
	})

	mux.HandleFunc("/api/v1/targets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"targets": []targetRecord{
				{Name: "MIDEVSTB_db", Type: "oracle_database", Status: "UP"},
				{Name: "PRODDB01", Type: "oracle_database", Status: "UP"},
				{Name: "DGSTBY02", Type: "oracle_database", Status: "DOWN"},
			},
		})
	})

	// Keyword-driven stand-in for the question classifier.
	mux.HandleFunc("/api/v1/classify", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		text := strings.ToLower(req.Text)
		intent := "ROOT_CAUSE"
		switch {
		case strings.Contains(text, "how many"):
			intent = "ENTITY_COUNT"
		case strings.Contains(text, "down") || strings.Contains(text, "health"):
			intent = "HEALTH_STATUS"
		case strings.Contains(text, "predict") || strings.Contains(text, "will"):
			intent = "PREDICTIVE"
		case strings.Contains(text, "fix") || strings.Contains(text, "recommend"):
			intent = "RECOMMENDATION"
		}
		target := ""
		if strings.Contains(text, "midevstb") {
			target = "MIDEVSTB"
		} else if strings.Contains(text, "proddb01") {
			target = "PRODDB01"
		}
		writeJSON(w, map[string]any{
			"intent":     intent,
			"confidence": 0.9,
			"entities": map[string]any{
				"target": target,
			},
			"wants_actions": strings.Contains(text, "fix") || strings.Contains(text, "recommend"),
		})
	})

	// Sink endpoints accept anything and acknowledge.
	for _, p := range []string{"/api/v1/patterns", "/api/v1/anomalies", "/api/v1/actions"} {
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			if !enforcePost(w, r) {
				return
			}
			w.WriteHeader(http.StatusAccepted)
		})
	}

	logger := log.New(log.Writer(), "core-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8081",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8081")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
