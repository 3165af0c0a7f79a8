// Package config collects the environment-driven settings in one place.
// godotenv is loaded by main before this runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string

	EncryptionKey string
	JWTSecret     string

	Gmail  GmailConfig
	Filter FilterConfig
	AI     AIConfig
}

// GmailConfig controls the mailbox polling pipeline.
type GmailConfig struct {
	SenderDomains   []string
	SubjectPatterns []string
	SearchQuery     string
	MaxResults      int
	BatchSize       int
	PollInterval    time.Duration
}

// FilterConfig carries the deployment-wide filter defaults.
type FilterConfig struct {
	MinConfidence int
	ExcludeLabels []string
}

// AIConfig points at the completion API used for task extraction.
type AIConfig struct {
	APIKey string
	Model  string
	APIURL string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("API_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		OAuthClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		OAuthRedirectURL:  os.Getenv("OAUTH_REDIRECT_URL"),
		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
		JWTSecret:         os.Getenv("JWT_SECRET_KEY"),
		Gmail: GmailConfig{
			SenderDomains:   splitList(os.Getenv("GMAIL_SENDER_DOMAINS")),
			SubjectPatterns: splitList(os.Getenv("GMAIL_SUBJECT_PATTERNS")),
			SearchQuery:     os.Getenv("GMAIL_SEARCH_QUERY"),
			MaxResults:      getEnvInt("GMAIL_MAX_RESULTS", 50),
			BatchSize:       getEnvInt("GMAIL_BATCH_SIZE", 10),
			PollInterval:    getEnvDuration("GMAIL_POLL_INTERVAL", 5*time.Minute),
		},
		Filter: FilterConfig{
			MinConfidence: getEnvInt("FILTER_MIN_CONFIDENCE", 0),
			ExcludeLabels: splitList(getEnv("FILTER_EXCLUDE_LABELS", "SPAM,TRASH")),
		},
		AI: AIConfig{
			APIKey: os.Getenv("AI_API_KEY"),
			Model:  os.Getenv("AI_MODEL"),
			APIURL: os.Getenv("AI_API_URL"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.EncryptionKey != "" && len(cfg.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes, got %d", len(cfg.EncryptionKey))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// splitList parses a comma-separated env value, trimming blanks.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
