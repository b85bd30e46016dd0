package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/carescope/internal/util"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server over its chat API.
type OllamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
	config   Config
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error"`
}

// NewOllamaProvider builds a provider for config.BaseURL, or the default
// local address.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	base := strings.TrimRight(config.BaseURL, "/")
	if base == "" {
		base = defaultOllamaURL
	}

	// No client timeout: each call is bounded by the narrative context, and
	// a cold model can take a while to load.
	client, err := util.NewHTTPClient(0, config.Proxy)
	if err != nil {
		return nil, err
	}

	return &OllamaProvider{
		endpoint: base + "/api/chat",
		model:    config.Model,
		client:   client,
		config:   config,
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

// Complete sends the system and user prompts as one non-streaming chat turn.
func (p *OllamaProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return nil, errors.New("ollama: no model configured (e.g. llama3.1:8b)")
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	out, err := p.chat(ctx, chatRequest{
		Model:    model,
		Messages: messages,
		Options:  chatOptions{Temperature: temperature, NumPredict: maxTokens(req, p.config)},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return nil, errors.New("ollama: empty reply")
	}
	resp := &Response{Text: text, Model: model, TokensUsed: out.PromptEvalCount + out.EvalCount}
	if out.Model != "" {
		resp.Model = out.Model
	}
	return resp, nil
}

func (p *OllamaProvider) chat(ctx context.Context, in chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(raw, &out)
	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, fmt.Errorf("status %d: %s", httpResp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &out, nil
}
