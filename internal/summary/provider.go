// Package summary generates optional narrative text for output records.
package summary

import (
	"context"
	"time"

	"github.com/ppiankov/carescope/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one system+user prompt and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is one completion call.
type Request struct {
	System    string
	Prompt    string
	Model     string
	MaxTokens int
}

// Response is the provider output.
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "gemini", "ollama", or "" for disabled
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout bounds each narrative call
	Timeout time.Duration

	MaxTokens int
	RateLimit float64
	Proxy     string
}

// ConfigFromModel converts application config. A disabled LLM section yields
// an empty provider.
func ConfigFromModel(cfg model.LLMConfig) Config {
	c := Config{
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
		RateLimit: cfg.RateLimit,
		Proxy:     cfg.Proxy,
	}
	if cfg.Enabled {
		c.Provider = cfg.Provider
	}
	return c
}

// temperature keeps narratives focused on the supplied data.
const temperature = 0.3

func maxTokens(req Request, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 800
}
