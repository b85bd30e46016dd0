package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/carescope/internal/model"
	"github.com/ppiankov/carescope/internal/worker"
)

// ErrUnavailable wraps every narrative failure. Callers treat it as a
// degraded record, never as a failed run.
var ErrUnavailable = errors.New("narrative summary unavailable")

// CanonicalProvider maps a configured provider name, including aliases, to
// the name the provider reports for itself.
func CanonicalProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "google" {
		return "gemini"
	}
	return name
}

// NewProvider creates a provider based on configuration. An empty provider
// name disables narratives and returns nil.
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	switch CanonicalProvider(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "gemini":
		return NewGeminiProvider(ctx, config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, gemini, ollama)", config.Provider)
	}
}

// Summarizer turns records into narratives through one provider.
type Summarizer struct {
	provider Provider
	config   Config
	limiter  *worker.Limiter
	log      *zap.Logger
}

// NewSummarizer builds the configured provider. A nil limiter disables rate limiting.
func NewSummarizer(ctx context.Context, config Config, limiter *worker.Limiter, log *zap.Logger) (*Summarizer, error) {
	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, err
	}
	return newSummarizer(provider, config, limiter, log), nil
}

func newSummarizer(provider Provider, config Config, limiter *worker.Limiter, log *zap.Logger) *Summarizer {
	if limiter == nil {
		limiter = worker.NewLimiter(config.RateLimit, 1)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{provider: provider, config: config, limiter: limiter, log: log}
}

// IsEnabled reports whether a provider is configured.
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled.
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// Narrate produces narrative text for one record. Every failure, including a
// disabled provider and an empty reply, wraps ErrUnavailable.
func (s *Summarizer) Narrate(ctx context.Context, req model.NarrativeRequest) (model.Narrative, error) {
	if !s.IsEnabled() {
		return model.Narrative{}, fmt.Errorf("%w: no provider configured", ErrUnavailable)
	}

	name := s.provider.Name()
	if err := s.limiter.WaitHost(ctx, name); err != nil {
		return model.Narrative{}, fmt.Errorf("%w: %s rate limit: %v", ErrUnavailable, name, err)
	}

	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	system, prompt := BuildPrompt(req)
	start := time.Now()
	resp, err := s.provider.Complete(ctx, Request{System: system, Prompt: prompt, MaxTokens: s.config.MaxTokens})
	if err != nil {
		return model.Narrative{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return model.Narrative{}, fmt.Errorf("%w: %s returned empty text", ErrUnavailable, name)
	}

	s.log.Debug("narrative generated",
		zap.String("record", req.Name),
		zap.String("provider", name),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("elapsed", time.Since(start)))

	return model.Narrative{Provider: name, Model: resp.Model, Text: resp.Text}, nil
}
