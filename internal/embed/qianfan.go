// Package embed talks to an OpenAI-compatible embedding endpoint
// (Qianfan's v2 API by default) and converts text into fixed-length
// vectors.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meilian-ai/advisor/internal/logger"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://qianfan.baidubce.com/v2"
	DefaultModel     = "embedding-v1"
	DefaultDimension = 384
	DefaultTimeout   = 60 * time.Second
)

// ErrInvalidInput is returned when the input is empty or contains a
// blank string.
var ErrInvalidInput = errors.New("embed: input must be a non-empty list of non-blank strings")

// Config holds configuration for the embedding client.
type Config struct {
	// APIKey authenticates against the embedding service (required).
	APIKey string

	// BaseURL is the API base URL (default: Qianfan v2).
	BaseURL string

	// Model is the embedding model name (default: embedding-v1).
	Model string

	// Dimension is the vector size the model produces.
	Dimension int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Client generates embeddings through a single batched HTTP call per
// Encode. There is no retry; a failed batch is failed as a whole.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	dim        int
}

// embeddingRequest is the /embeddings request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the /embeddings response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new embedding client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embed: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dim:        cfg.Dimension,
	}, nil
}

// Encode embeds all texts in one batched call. Any transport or API
// failure, and any response whose vector count differs from the input
// count, fails the whole call.
func (c *Client) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrInvalidInput
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, ErrInvalidInput
		}
	}

	logger.Debug("Embedding %d text(s) with model %s", len(texts), c.model)

	jsonBody, err := json.Marshal(embeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("embed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Embedding request failed: %v", err)
		return nil, fmt.Errorf("embed: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: read response: %w", err)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if embedResp.Error != nil {
		logger.Error("Embedding API error: %s", embedResp.Error.Message)
		return nil, fmt.Errorf("embed: API error: %s", embedResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: API status %d: %s", resp.StatusCode, string(body))
	}
	if len(embedResp.Data) != len(texts) {
		logger.Error("Embedding count mismatch: sent %d, got %d", len(texts), len(embedResp.Data))
		return nil, fmt.Errorf("embed: count mismatch: sent %d texts, got %d vectors", len(texts), len(embedResp.Data))
	}

	// Order by index; the API may return vectors out of order.
	vectors := make([][]float32, len(texts))
	for _, d := range embedResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embed: vector index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embed: missing vector for input %d", i)
		}
	}

	return vectors, nil
}

// Dimension returns the vector dimensionality of the model.
func (c *Client) Dimension() int {
	return c.dim
}
