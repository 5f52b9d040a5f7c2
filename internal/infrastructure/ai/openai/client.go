// Package openai provides integration with OpenAI compatible chat completion APIs
package openai

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
	ProviderName = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
)

// Config holds OpenAI client configuration
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout of 0 leaves calls unbounded
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client implements outbound.TextGenerator using the chat completions API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger = logger.Named("openai-client")
	logger.Info("OpenAI client initialized",
		zap.String("base_url", baseURL),
		zap.Bool("credential_configured", cfg.APIKey != ""))

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		logger: logger,
	}
}

// OpenAI API structures
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string           `json:"name"`
	Schema *outbound.Schema `json:"schema"`
	Strict bool             `json:"strict"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Name implements outbound.TextGenerator
func (c *Client) Name() string { return ProviderName }

// RequiresCredential implements outbound.TextGenerator
func (c *Client) RequiresCredential() bool { return true }

// HasCredential implements outbound.TextGenerator
func (c *Client) HasCredential() bool { return c.apiKey != "" }

// Generate sends the prompt as a single user message
func (c *Client) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	if req.LiveSearch {
		c.logger.Debug("Live search is not supported by chat completions, answering from model knowledge",
			zap.String("model", req.Model))
	}

	reqBody := ChatCompletionRequest{
		Model:       req.Model,
		Messages:    []Message{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	switch {
	case req.Schema != nil:
		reqBody.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchemaFormat{Name: "reply", Schema: req.Schema},
		}
	case req.JSON:
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	text := ""
	if len(chatResp.Choices) > 0 {
		text = chatResp.Choices[0].Message.Content
	}

	c.logger.Debug("OpenAI API call successful",
		zap.String("model", chatResp.Model),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens))

	return &outbound.GenerationResponse{
		Text:       text,
		Model:      chatResp.Model,
		TokensUsed: chatResp.Usage.TotalTokens,
	}, nil
}
