package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the insight engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Clients  ClientsConfig  `yaml:"clients"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Session  SessionConfig  `yaml:"session"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP, gRPC health and metrics listeners.
type ServerConfig struct {
	HTTPAddress     string        `yaml:"httpAddress"`
	GRPCAddress     string        `yaml:"grpcAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups the external collaborators.
type ClientsConfig struct {
	Core       CoreClientConfig       `yaml:"core"`
	Classifier ClassifierClientConfig `yaml:"classifier"`
	Sink       SinkClientConfig       `yaml:"sink"`
}

// CoreClientConfig configures access to the alert store APIs.
type CoreClientConfig struct {
	BaseURL  string        `yaml:"baseURL"`
	Timeout  time.Duration `yaml:"timeout"`
	Attempts uint          `yaml:"attempts"`
}

// ClassifierClientConfig configures the text-understanding collaborator.
type ClassifierClientConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// SinkClientConfig configures the fire-and-forget persistence sinks.
type SinkClientConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// AnalysisConfig tunes the analysis core. Changing the incident gap forces a
// full rebuild of incident groupings on the next question.
type AnalysisConfig struct {
	IncidentGap      time.Duration     `yaml:"incidentGap"`
	Lookback         time.Duration     `yaml:"lookback"`
	CPUThreshold     float64           `yaml:"cpuThreshold"`
	MemoryThreshold  float64           `yaml:"memoryThreshold"`
	StorageThreshold float64           `yaml:"storageThreshold"`
	IndexCacheSize   int               `yaml:"indexCacheSize"`
	IndexCacheTTL    time.Duration     `yaml:"indexCacheTTL"`
	TargetAliases    map[string]string `yaml:"targetAliases"`
}

// SessionConfig selects the session snapshot backend.
type SessionConfig struct {
	Backend string        `yaml:"backend"` // memory | redis
	Redis   RedisConfig   `yaml:"redis"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig configures the redis-backed session snapshotter.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("OEM_INSIGHT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddress:     ":8080",
			GRPCAddress:     ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Core:       CoreClientConfig{Timeout: 5 * time.Second, Attempts: 3},
			Classifier: ClassifierClientConfig{Timeout: 3 * time.Second},
			Sink:       SinkClientConfig{Timeout: 2 * time.Second},
		},
		Analysis: AnalysisConfig{
			IncidentGap:      10 * time.Minute,
			Lookback:         7 * 24 * time.Hour,
			CPUThreshold:     85,
			MemoryThreshold:  80,
			StorageThreshold: 80,
			IndexCacheSize:   16,
			IndexCacheTTL:    5 * time.Minute,
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OEM_INSIGHT_HTTP_ADDRESS"); v != "" {
		cfg.Server.HTTPAddress = v
	}
	if v := os.Getenv("OEM_INSIGHT_GRPC_ADDRESS"); v != "" {
		cfg.Server.GRPCAddress = v
	}
	if v := os.Getenv("OEM_INSIGHT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("OEM_INSIGHT_CORE_BASE_URL"); v != "" {
		cfg.Clients.Core.BaseURL = v
	}
	if v := os.Getenv("OEM_INSIGHT_CORE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.Core.Timeout = d
		}
	}
	if v := os.Getenv("OEM_INSIGHT_CLASSIFIER_BASE_URL"); v != "" {
		cfg.Clients.Classifier.BaseURL = v
	}
	if v := os.Getenv("OEM_INSIGHT_SINK_BASE_URL"); v != "" {
		cfg.Clients.Sink.BaseURL = v
	}
	if v := os.Getenv("OEM_INSIGHT_INCIDENT_GAP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.IncidentGap = d
		}
	}
	if v := os.Getenv("OEM_INSIGHT_LOOKBACK"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.Lookback = d
		}
	}
	if v := os.Getenv("OEM_INSIGHT_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("OEM_INSIGHT_REDIS_ADDR"); v != "" {
		cfg.Session.Redis.Addr = v
	}
	if v := os.Getenv("OEM_INSIGHT_REDIS_USERNAME"); v != "" {
		cfg.Session.Redis.Username = v
	}
	if v := os.Getenv("OEM_INSIGHT_REDIS_PASSWORD"); v != "" {
		cfg.Session.Redis.Password = v
	}
	if v := os.Getenv("OEM_INSIGHT_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Session.Redis.DB = db
		}
	}
	if v := os.Getenv("OEM_INSIGHT_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		}
	}
	if v := os.Getenv("OEM_INSIGHT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OEM_INSIGHT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}
