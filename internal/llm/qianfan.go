// Package llm provides the chat-completion collaborator backed by an
// OpenAI-compatible endpoint (Qianfan's v2 API by default).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/logger"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://qianfan.baidubce.com/v2"
	DefaultModel   = "deepseek-v3"
	DefaultTimeout = 120 * time.Second
)

// Sampling defaults carried by every request; slightly below the API
// defaults to keep structured output stable.
const (
	defaultTemperature = 0.7
	defaultTopP        = 0.8
)

// Config holds configuration for the completion client.
type Config struct {
	// APIKey authenticates against the completion service (required).
	APIKey string

	// BaseURL is the API base URL (default: Qianfan v2).
	BaseURL string

	// Model is the chat model name (default: deepseek-v3).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Client sends chat completion requests. No streaming, no retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	TopP        float64        `json:"top_p,omitempty"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewClient creates a new completion client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}, nil
}

// ChatCompletion sends the messages to the model and returns the plain
// text of the first choice.
func (c *Client) ChatCompletion(ctx context.Context, messages []core.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("llm: no messages to send")
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	logger.Debug("Sending %d message(s) to model %s", len(messages), c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Completion request failed: %v", err)
		return "", fmt.Errorf("llm: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if chatResp.Error != nil {
		logger.Error("Completion API error: %s", chatResp.Error.Message)
		return "", fmt.Errorf("llm: API error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: API status %d: %s", resp.StatusCode, string(body))
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("llm: no choices returned")
	}

	if chatResp.Usage.TotalTokens > 0 {
		logger.Debug("Completion usage: prompt=%d completion=%d total=%d",
			chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens, chatResp.Usage.TotalTokens)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.model
}
