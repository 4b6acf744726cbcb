package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("http address = %q", cfg.Server.HTTPAddress)
	}
	if cfg.Analysis.IncidentGap != 10*time.Minute {
		t.Errorf("incident gap = %s", cfg.Analysis.IncidentGap)
	}
	if cfg.Analysis.CPUThreshold != 85 || cfg.Analysis.MemoryThreshold != 80 || cfg.Analysis.StorageThreshold != 80 {
		t.Errorf("unexpected thresholds: %+v", cfg.Analysis)
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("session backend = %q", cfg.Session.Backend)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  httpAddress: ":9090"
clients:
  core:
    baseURL: "http://core:8081"
    attempts: 5
analysis:
  incidentGap: 5m
  targetAliases:
    MIDEVSTB_db: MIDEVSTB
session:
  backend: redis
  redis:
    addr: "localhost:6379"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.HTTPAddress != ":9090" {
		t.Errorf("http address = %q", cfg.Server.HTTPAddress)
	}
	if cfg.Clients.Core.BaseURL != "http://core:8081" || cfg.Clients.Core.Attempts != 5 {
		t.Errorf("core client = %+v", cfg.Clients.Core)
	}
	if cfg.Analysis.IncidentGap != 5*time.Minute {
		t.Errorf("incident gap = %s", cfg.Analysis.IncidentGap)
	}
	if cfg.Analysis.TargetAliases["MIDEVSTB_db"] != "MIDEVSTB" {
		t.Errorf("aliases = %v", cfg.Analysis.TargetAliases)
	}
	if cfg.Session.Backend != "redis" || cfg.Session.Redis.Addr != "localhost:6379" {
		t.Errorf("session = %+v", cfg.Session)
	}
	// Defaults survive a partial file.
	if cfg.Clients.Classifier.Timeout != 3*time.Second {
		t.Errorf("classifier timeout = %s", cfg.Clients.Classifier.Timeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OEM_INSIGHT_HTTP_ADDRESS", ":7070")
	t.Setenv("OEM_INSIGHT_CORE_BASE_URL", "http://override:9000")
	t.Setenv("OEM_INSIGHT_INCIDENT_GAP", "20m")
	t.Setenv("OEM_INSIGHT_SESSION_BACKEND", "Redis")
	t.Setenv("OEM_INSIGHT_LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.HTTPAddress != ":7070" {
		t.Errorf("http address = %q", cfg.Server.HTTPAddress)
	}
	if cfg.Clients.Core.BaseURL != "http://override:9000" {
		t.Errorf("core base url = %q", cfg.Clients.Core.BaseURL)
	}
	if cfg.Analysis.IncidentGap != 20*time.Minute {
		t.Errorf("incident gap = %s", cfg.Analysis.IncidentGap)
	}
	if cfg.Session.Backend != "redis" {
		t.Errorf("session backend = %q", cfg.Session.Backend)
	}
	if !cfg.Logging.JSON {
		t.Error("log format override not applied")
	}
}
