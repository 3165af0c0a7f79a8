// Package ai holds the text-completion collaborator used for AI-assisted task
// extraction. The caller must assume responses may not be valid JSON.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL = "https://api.anthropic.com/v1/messages"
	defaultModel  = "claude-3-5-haiku-20241022"
	apiVersion    = "2023-06-01"
)

// CompletionClient produces free-form text for a prompt and system instruction.
type CompletionClient interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
	Configured() bool
}

// Client calls an Anthropic-style messages endpoint over plain HTTP.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient builds a completion client. Empty apiURL and model fall back to
// the deployed defaults; an empty apiKey leaves the client unconfigured.
func NewClient(apiURL, apiKey, model string, log *zap.Logger) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if model == "" {
		model = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type messageRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends the prompt and returns the model's text response.
func (c *Client) Complete(ctx context.Context, prompt, system string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("no API key configured")
	}

	payload, err := json.Marshal(messageRequest{
		Model:       c.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   4000,
		Temperature: 0.2,
		System:      system,
	})
	if err != nil {
		return "", fmt.Errorf("could not encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("could not build completion request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", fmt.Errorf("completion API rejected the API key (status 401)")
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("completion API rate limit exceeded (status 429)")
	default:
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("could not decode completion response: %w", err)
	}
	if len(decoded.Content) == 0 || decoded.Content[0].Text == "" {
		return "", fmt.Errorf("completion response has no text content")
	}

	return decoded.Content[0].Text, nil
}
