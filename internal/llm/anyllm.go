package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	anyllm "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"

	"github.com/lgezyxr/subgen/internal/apierr"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultOllamaModel    = "qwen2.5:14b"
	defaultOllamaHost     = "http://localhost:11434"
)

func init() {
	Register("anthropic", func(s Settings) (Client, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("anthropic requires an API key, set ANTHROPIC_API_KEY: %w", apierr.ErrAuthFailed)
		}
		backend, err := anthropic.New(anyllm.WithAPIKey(s.APIKey))
		if err != nil {
			return nil, fmt.Errorf("anthropic backend: %w", err)
		}
		return newAnyLLM(backend, "anthropic", s.Model, defaultAnthropicModel, true, s.TimeoutSec), nil
	})
	Register("ollama", func(s Settings) (Client, error) {
		host := s.OllamaHost
		if host == "" {
			host = defaultOllamaHost
		}
		if err := validateBaseURL(host); err != nil {
			return nil, err
		}
		backend, err := ollama.New(anyllm.WithBaseURL(strings.TrimSuffix(host, "/")))
		if err != nil {
			return nil, fmt.Errorf("ollama backend at %s, is 'ollama serve' running: %w", host, err)
		}
		return newAnyLLM(backend, "ollama", s.Model, defaultOllamaModel, false, s.TimeoutSec), nil
	})
}

// completeFunc runs one completion and returns the first choice's text.
type completeFunc func(ctx context.Context, params anyllm.CompletionParams) (string, error)

// AnyLLMClient serves the providers reached through any-llm-go:
// Anthropic and local Ollama.
type AnyLLMClient struct {
	complete     completeFunc
	name         string
	model        string
	requiresAuth bool
	timeout      time.Duration
}

func newAnyLLM(backend anyllm.Provider, name, model, defaultModel string, requiresAuth bool, timeoutSec int) *AnyLLMClient {
	if model == "" {
		model = defaultModel
	}
	return &AnyLLMClient{
		complete: func(ctx context.Context, params anyllm.CompletionParams) (string, error) {
			resp, err := backend.Completion(ctx, params)
			if err != nil {
				return "", err
			}
			if len(resp.Choices) == 0 {
				return "", apierr.ErrEmptyResponse
			}
			return resp.Choices[0].Message.ContentString(), nil
		},
		name:         name,
		model:        model,
		requiresAuth: requiresAuth,
		timeout:      time.Duration(timeoutSec) * time.Second,
	}
}

func (c *AnyLLMClient) Name() string       { return c.name }
func (c *AnyLLMClient) Model() string      { return c.model }
func (c *AnyLLMClient) RequiresAuth() bool { return c.requiresAuth }

func (c *AnyLLMClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	temp := params.temperature()
	req := anyllm.CompletionParams{
		Model:       c.model,
		Temperature: &temp,
	}
	if params.MaxTokens > 0 {
		mt := params.MaxTokens
		req.MaxTokens = &mt
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, anyllm.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	text, err := c.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", c.name, err)
	}
	return strings.TrimSpace(text), nil
}
