package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestComplete_SendsMessagesRequest(t *testing.T) {
	// Arrange
	var gotHeaders http.Header
	var gotBody messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"text":"the extraction"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-model", zap.NewNop())

	// Act
	got, err := client.Complete(context.Background(), "extract tasks", "respond with JSON")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "the extraction", got)

	assert.Equal(t, "test-key", gotHeaders.Get("x-api-key"))
	assert.Equal(t, apiVersion, gotHeaders.Get("anthropic-version"))
	assert.Equal(t, "application/json", gotHeaders.Get("content-type"))

	assert.Equal(t, "test-model", gotBody.Model)
	assert.Equal(t, "respond with JSON", gotBody.System)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "extract tasks", gotBody.Messages[0].Content)
	assert.Equal(t, 4000, gotBody.MaxTokens)
}

func TestComplete_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, "rejected the API key"},
		{"rate limited", http.StatusTooManyRequests, "rate limit exceeded"},
		{"server error", http.StatusInternalServerError, "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "test-key", "", zap.NewNop())
			_, err := client.Complete(context.Background(), "prompt", "")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "", zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestComplete_WithoutKeyFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "", zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt", "")

	require.Error(t, err)
	assert.False(t, called, "unconfigured client must not send requests")
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", "", "", nil)

	assert.False(t, client.Configured())
	assert.Equal(t, defaultAPIURL, client.apiURL)
	assert.Equal(t, defaultModel, client.model)

	configured := NewClient("", "some-key", "", nil)
	assert.True(t, configured.Configured())
}
