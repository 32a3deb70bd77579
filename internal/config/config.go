package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	Adherence AdherenceConfig
	Analysis  AnalysisConfig
	Sweep     SweepConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Path string
}

type SecurityConfig struct {
	CSPEnabled  bool
	HSTSEnabled bool
}

// AdherenceConfig bounds the streak computation. LookbackDays caps the
// backward day walk so worst-case work is LookbackDays reads per request.
type AdherenceConfig struct {
	LookbackDays int
}

// AnalysisConfig configures the external prescription-image model.
// RequestsPerMinute throttles outbound calls to the provider.
type AnalysisConfig struct {
	APIKey            string
	Endpoint          string
	Model             string
	RequestsPerMinute int
	Timeout           time.Duration
}

// SweepConfig controls the overdue-dose sweep that marks stale pending logs
// as missed.
type SweepConfig struct {
	Enabled     bool
	Interval    time.Duration
	GracePeriod time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	lookbackDays, _ := strconv.Atoi(getEnv("STREAK_LOOKBACK_DAYS", "365"))
	if lookbackDays <= 0 {
		lookbackDays = 365
	}

	analysisTimeout, err := time.ParseDuration(getEnv("ANALYSIS_TIMEOUT", "60s"))
	if err != nil {
		analysisTimeout = 60 * time.Second
	}

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "5m"))
	if err != nil {
		sweepInterval = 5 * time.Minute
	}

	sweepGrace, err := time.ParseDuration(getEnv("SWEEP_GRACE_PERIOD", "1h"))
	if err != nil {
		sweepGrace = 1 * time.Hour
	}

	sweepEnabled, _ := strconv.ParseBool(getEnv("SWEEP_ENABLED", "true"))
	cspEnabled, _ := strconv.ParseBool(getEnv("CSP_ENABLED", "true"))
	hstsEnabled, _ := strconv.ParseBool(getEnv("HSTS_ENABLED", "true"))
	analysisRPM, _ := strconv.Atoi(getEnv("ANALYSIS_REQUESTS_PER_MINUTE", "10"))
	if analysisRPM <= 0 {
		analysisRPM = 10
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/medmind.db"),
		},
		Security: SecurityConfig{
			CSPEnabled:  cspEnabled,
			HSTSEnabled: hstsEnabled,
		},
		Adherence: AdherenceConfig{
			LookbackDays: lookbackDays,
		},
		Analysis: AnalysisConfig{
			APIKey:            getEnv("ANALYSIS_API_KEY", ""),
			Endpoint:          getEnv("ANALYSIS_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			Model:             getEnv("ANALYSIS_MODEL", "gpt-4o"),
			RequestsPerMinute: analysisRPM,
			Timeout:           analysisTimeout,
		},
		Sweep: SweepConfig{
			Enabled:     sweepEnabled,
			Interval:    sweepInterval,
			GracePeriod: sweepGrace,
		},
	}

	// Prescription analysis is optional; everything else has a default, so
	// there is nothing mandatory to validate here. Handlers return 503 when
	// analysis is requested without an API key.
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
