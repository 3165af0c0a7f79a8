package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tasks")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 50, cfg.Gmail.MaxResults)
	assert.Equal(t, 10, cfg.Gmail.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Gmail.PollInterval)
	assert.Equal(t, 0, cfg.Filter.MinConfidence)
	assert.Equal(t, []string{"SPAM", "TRASH"}, cfg.Filter.ExcludeLabels)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_BadEncryptionKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tasks")
	t.Setenv("ENCRYPTION_KEY", "short")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
}

func TestLoad_ParsesLists(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tasks")
	t.Setenv("GMAIL_SENDER_DOMAINS", "google.com, zoom.us ,teams.microsoft.com")
	t.Setenv("GMAIL_SUBJECT_PATTERNS", "transcript, meeting notes")
	t.Setenv("GMAIL_POLL_INTERVAL", "90s")
	t.Setenv("FILTER_MIN_CONFIDENCE", "40")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"google.com", "zoom.us", "teams.microsoft.com"}, cfg.Gmail.SenderDomains)
	assert.Equal(t, []string{"transcript", "meeting notes"}, cfg.Gmail.SubjectPatterns)
	assert.Equal(t, 90*time.Second, cfg.Gmail.PollInterval)
	assert.Equal(t, 40, cfg.Filter.MinConfidence)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tasks")
	t.Setenv("GMAIL_MAX_RESULTS", "not-a-number")
	t.Setenv("GMAIL_POLL_INTERVAL", "whenever")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Gmail.MaxResults)
	assert.Equal(t, 5*time.Minute, cfg.Gmail.PollInterval)
}
