// Package ai wires the configured text generation provider
package ai

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holidaytable/planner/internal/infrastructure/ai/gemini"
	"github.com/holidaytable/planner/internal/infrastructure/ai/ollama"
	"github.com/holidaytable/planner/internal/infrastructure/ai/openai"
	"github.com/holidaytable/planner/internal/ports/outbound"
)

// ProviderConfig selects and configures one text generation provider
type ProviderConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// NewTextGenerator builds the generator named by cfg.Provider.
// Unknown names fall back to Gemini.
func NewTextGenerator(cfg ProviderConfig, logger *zap.Logger) outbound.TextGenerator {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case openai.ProviderName:
		return openai.NewClient(openai.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		}, logger)
	case ollama.ProviderName:
		return ollama.NewClient(ollama.Config{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		}, logger)
	case gemini.ProviderName, "":
	default:
		logger.Warn("Unknown AI provider, using Gemini", zap.String("provider", cfg.Provider))
	}

	return gemini.NewClient(gemini.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
	}, logger)
}
