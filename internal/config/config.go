package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Fixed analysis constants. These are deliberately not configurable per
// call: thresholds and caps are part of the detector contract.
const (
	// MaxRuleIssues caps how many reliability cards a single rule-based
	// run may produce.
	MaxRuleIssues = 8

	// TopEndpoints limits the per-screen endpoint breakdown.
	TopEndpoints = 3

	// LatencyPercentile is the percentile reported for api_ms latency.
	LatencyPercentile = 0.95

	// MinWindowHours / MaxWindowHours bound the analysis window.
	MinWindowHours = 1
	MaxWindowHours = 168
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string
	ListenAddr  string

	// MinEventsForIssue is the volume floor a screen must clear before the
	// rule-based detector will consider it. Screens below the floor still
	// appear in raw aggregation and model-assisted analysis.
	MinEventsForIssue int

	// WindowHours is the default analysis window length in hours, used by
	// the rule worker and when callers omit the hours parameter.
	WindowHours int

	// ModelProvider selects the foundation-model provider. Only "openai"
	// (and OpenAI-compatible endpoints via ModelBaseURL) is supported.
	ModelProvider string
	ModelAPIKey   string
	ModelName     string
	ModelBaseURL  string

	// IngestAPIKey optionally guards POST /v1/events/batch. If empty,
	// ingestion is open, which suits a single-developer machine.
	IngestAPIKey string

	// RetentionDays is how long raw events are kept before the retention
	// worker deletes them. Zero disables retention.
	RetentionDays int
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseURL:       os.Getenv("UXPULSE_DATABASE_URL"),
		ListenAddr:        getenv("UXPULSE_LISTEN_ADDR", ":8000"),
		MinEventsForIssue: 5,
		WindowHours:       24,
		ModelProvider:     strings.ToLower(strings.TrimSpace(getenv("FOUNDATION_MODEL_PROVIDER", "openai"))),
		ModelAPIKey:       strings.TrimSpace(os.Getenv("FOUNDATION_MODEL_API_KEY")),
		ModelName:         getenv("FOUNDATION_MODEL_NAME", "gpt-4o-mini"),
		ModelBaseURL:      strings.TrimSpace(os.Getenv("FOUNDATION_MODEL_BASE_URL")),
		IngestAPIKey:      os.Getenv("UXPULSE_API_KEY"),
	}

	if v := os.Getenv("MIN_EVENTS_FOR_ISSUE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinEventsForIssue = n
		}
	}
	if v := os.Getenv("UXPULSE_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RetentionDays = n
		}
	}
	if v := os.Getenv("ANALYSIS_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WindowHours = ClampWindowHours(n)
		}
	}

	return cfg
}

// ClampWindowHours forces an analysis window length into
// [MinWindowHours, MaxWindowHours].
func ClampWindowHours(hours int) int {
	if hours < MinWindowHours {
		return MinWindowHours
	}
	if hours > MaxWindowHours {
		return MaxWindowHours
	}
	return hours
}

// ValidateModel checks the foundation-model settings before any network
// call is attempted. Violations are caller-input errors, reported with
// enough detail to fix the environment.
func (c *Config) ValidateModel() error {
	if c.ModelProvider != "openai" {
		return fmt.Errorf("FOUNDATION_MODEL_PROVIDER must be 'openai' for this endpoint, got %q", c.ModelProvider)
	}
	if c.ModelAPIKey == "" {
		return errors.New("FOUNDATION_MODEL_API_KEY is missing. Set it in your .env file")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
