// Package gemini provides Google Gemini integration over the generateContent REST API
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/ports/outbound"
)

const (
	// ProviderName identifies the provider in config, logs and metrics
	ProviderName = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com"
)

// Config holds Gemini client configuration
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout of 0 leaves calls unbounded
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client implements outbound.TextGenerator using the Gemini API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new Gemini client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger = logger.Named("gemini-client")
	logger.Info("Gemini client initialized",
		zap.String("base_url", baseURL),
		zap.Bool("credential_configured", cfg.APIKey != ""),
		zap.Duration("timeout", cfg.Timeout))

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

// Gemini API structures
type part struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type schema struct {
	Type             string             `json:"type"`
	Properties       map[string]*schema `json:"properties,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
	Items            *schema            `json:"items,omitempty"`
	Enum             []string           `json:"enum,omitempty"`
	Required         []string           `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema  `json:"responseSchema,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// GenerateContentRequest is the body of models/{model}:generateContent
type GenerateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []tool            `json:"tools,omitempty"`
}

// GenerateContentResponse is the reply of models/{model}:generateContent
type GenerateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// Name implements outbound.TextGenerator
func (c *Client) Name() string { return ProviderName }

// RequiresCredential implements outbound.TextGenerator
func (c *Client) RequiresCredential() bool { return true }

// HasCredential implements outbound.TextGenerator
func (c *Client) HasCredential() bool { return c.apiKey != "" }

// Generate sends one prompt to models/{model}:generateContent. A reply without
// candidates is returned as empty text, not as an error.
func (c *Client) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.GenerationResponse, error) {
	body := buildRequest(req)

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(raw))
	}

	var result GenerateContentResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	text := ""
	if len(result.Candidates) > 0 {
		text = joinText(result.Candidates[0].Content.Parts)
	} else {
		c.logger.Warn("Gemini returned no candidates", zap.String("model", req.Model))
	}

	c.logger.Debug("Gemini call successful",
		zap.String("model", req.Model),
		zap.Bool("live_search", req.LiveSearch),
		zap.Int("prompt_tokens", result.UsageMetadata.PromptTokenCount),
		zap.Int("total_tokens", result.UsageMetadata.TotalTokenCount))

	model := result.ModelVersion
	if model == "" {
		model = req.Model
	}

	return &outbound.GenerationResponse{
		Text:       text,
		Model:      model,
		TokensUsed: result.UsageMetadata.TotalTokenCount,
	}, nil
}

func buildRequest(req outbound.GenerationRequest) GenerateContentRequest {
	body := GenerateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}

	cfg := &generationConfig{Temperature: req.Temperature}

	// Search grounding cannot be combined with a JSON mime type; the caller
	// extracts the JSON object from the text instead.
	if req.LiveSearch {
		body.Tools = []tool{{GoogleSearch: &struct{}{}}}
	} else if req.JSON || req.Schema != nil {
		cfg.ResponseMimeType = "application/json"
		cfg.ResponseSchema = convertSchema(req.Schema)
	}

	if cfg.ResponseMimeType != "" || cfg.Temperature != nil {
		body.GenerationConfig = cfg
	}
	return body
}

// convertSchema maps the neutral schema onto Gemini's OpenAPI subset, which
// spells types in upper case and keeps property order explicit.
func convertSchema(s *outbound.Schema) *schema {
	if s == nil {
		return nil
	}

	out := &schema{
		Type:             strings.ToUpper(string(s.Type)),
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            convertSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func joinText(parts []part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
