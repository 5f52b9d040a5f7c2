// Package ollama provides Ollama integration for local AI inference
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

const (
	// ProviderName identifies the provider in config, logs and metrics
	ProviderName = "ollama"

	defaultBaseURL = "http://localhost:11434"
)

// Config holds Ollama client configuration
type Config struct {
	BaseURL string
	// Timeout of 0 leaves calls unbounded
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client implements outbound.TextGenerator using the Ollama API
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger = logger.Named("ollama-client")
	logger.Info("Ollama client initialized", zap.String("base_url", baseURL))

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		logger: logger,
	}
}

// Ollama API structures
type GenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  json.RawMessage        `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type GenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	EvalDuration    int64  `json:"eval_duration,omitempty"`
}

// Name implements outbound.TextGenerator
func (c *Client) Name() string { return ProviderName }

// RequiresCredential implements outbound.TextGenerator; a local server needs none
func (c *Client) RequiresCredential() bool { return false }

// HasCredential implements outbound.TextGenerator
func (c *Client) HasCredential() bool { return true }

// Ping verifies the Ollama service is reachable
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// Generate sends one prompt to /api/generate without streaming
func (c *Client) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	if req.LiveSearch {
		c.logger.Debug("Live search is not available for local models", zap.String("model", req.Model))
	}

	reqBody := GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
	}
	if req.Temperature != nil {
		reqBody.Options = map[string]interface{}{"temperature": *req.Temperature}
	}
	switch {
	case req.Schema != nil:
		format, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		reqBody.Format = format
	case req.JSON:
		reqBody.Format = json.RawMessage(`"json"`)
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !genResp.Done {
		return nil, fmt.Errorf("incomplete response from Ollama")
	}

	c.logger.Debug("Ollama generation successful",
		zap.String("model", genResp.Model),
		zap.Int64("eval_duration", genResp.EvalDuration),
		zap.Int("eval_count", genResp.EvalCount))

	return &outbound.GenerationResponse{
		Text:       genResp.Response,
		Model:      genResp.Model,
		TokensUsed: genResp.PromptEvalCount + genResp.EvalCount,
	}, nil
}
