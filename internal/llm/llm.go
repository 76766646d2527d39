// Package llm provides a uniform chat-completion interface over the
// translation providers: OpenAI, DeepSeek, and GitHub Copilot through the
// OpenAI-compatible API, Anthropic and Ollama through any-llm-go.
package llm

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultTemperature keeps translation output stable across runs.
const DefaultTemperature = 0.3

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Params tunes a single chat call. A zero Temperature means
// DefaultTemperature; use a small negative value for exactly zero.
type Params struct {
	Temperature float64
	MaxTokens   int
}

func (p Params) temperature() float64 {
	if p.Temperature == 0 {
		return DefaultTemperature
	}
	if p.Temperature < 0 {
		return 0
	}
	return p.Temperature
}

// Client is the chat-completion contract every provider adapter satisfies.
type Client interface {
	Chat(ctx context.Context, messages []Message, params Params) (string, error)
	Name() string
	Model() string
	RequiresAuth() bool
}

// Settings carries everything any provider construction may need.
type Settings struct {
	Model      string
	APIKey     string
	BaseURL    string
	OllamaHost string
	TimeoutSec int
}

// Factory builds a client from provider-specific settings.
type Factory func(Settings) (Client, error)

var factories = map[string]Factory{}

// Register adds a provider factory under a name. Called from init funcs
// of the adapter files.
func Register(name string, f Factory) {
	factories[name] = f
}

// New builds the client for a provider name.
func New(provider string, settings Settings) (Client, error) {
	f, ok := factories[provider]
	if !ok {
		return nil, fmt.Errorf("%q (valid: openai, deepseek, copilot, anthropic, ollama): %w",
			provider, ErrUnknownProvider)
	}
	return f(settings)
}

// validateBaseURL accepts only absolute http or https URLs with a host.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q: %v: %w", raw, err, ErrBadBaseURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q must be an http(s) URL: %w", raw, ErrBadBaseURL)
	}
	return nil
}
