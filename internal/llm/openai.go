package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lgezyxr/subgen/internal/apierr"
)

// OpenAI-compatible endpoint defaults.
const (
	deepseekBaseURL = "https://api.deepseek.com/v1"
	copilotBaseURL  = "https://api.githubcopilot.com"

	defaultOpenAIModel   = "gpt-4o-mini"
	defaultDeepSeekModel = "deepseek-chat"
	defaultCopilotModel  = "gpt-4o"
)

func init() {
	Register("openai", func(s Settings) (Client, error) {
		return newOpenAICompatible("openai", defaultOpenAIModel, s, "", nil)
	})
	Register("deepseek", func(s Settings) (Client, error) {
		return newOpenAICompatible("deepseek", defaultDeepSeekModel, s, deepseekBaseURL, nil)
	})
	Register("copilot", func(s Settings) (Client, error) {
		// The Copilot endpoint rejects requests without editor headers.
		headers := map[string]string{
			"Editor-Version":        "vscode/1.85.0",
			"Editor-Plugin-Version": "copilot-chat/0.12.0",
			"Openai-Organization":   "github-copilot",
			"Openai-Intent":         "conversation-panel",
		}
		return newOpenAICompatible("copilot", defaultCopilotModel, s, copilotBaseURL, headers)
	})
}

// chatCompleter is the slice of *openai.Client this adapter needs.
// Tests inject a scripted implementation.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ chatCompleter = (*openai.Client)(nil)

// OpenAIClient serves every provider that speaks the OpenAI chat API:
// OpenAI itself, DeepSeek, and GitHub Copilot.
type OpenAIClient struct {
	client  chatCompleter
	name    string
	model   string
	timeout time.Duration
	retry   apierr.RetryConfig
}

func newOpenAICompatible(name, defaultModel string, s Settings, fixedBaseURL string, headers map[string]string) (*OpenAIClient, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s requires an API key, set %s_API_KEY or run 'subgen auth login %s': %w",
			name, strings.ToUpper(name), name, apierr.ErrAuthFailed)
	}

	cfg := openai.DefaultConfig(s.APIKey)
	switch {
	case s.BaseURL != "":
		if err := validateBaseURL(s.BaseURL); err != nil {
			return nil, err
		}
		cfg.BaseURL = strings.TrimSuffix(s.BaseURL, "/")
	case fixedBaseURL != "":
		cfg.BaseURL = fixedBaseURL
	}
	if len(headers) > 0 {
		cfg.HTTPClient = &http.Client{Transport: &headerTransport{headers: headers}}
	}

	model := s.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		name:    name,
		model:   model,
		timeout: time.Duration(s.TimeoutSec) * time.Second,
		retry:   apierr.DefaultRetryConfig(),
	}, nil
}

func (c *OpenAIClient) Name() string       { return c.name }
func (c *OpenAIClient) Model() string      { return c.model }
func (c *OpenAIClient) RequiresAuth() bool { return true }

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(params.temperature()),
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = params.MaxTokens
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := apierr.RetryWithBackoff(ctx, c.retry, func() (openai.ChatCompletionResponse, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return openai.ChatCompletionResponse{}, classifyChatError(err)
		}
		return resp, nil
	}, apierr.IsRetryable)
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat: %w", c.name, apierr.ErrEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// headerTransport adds static headers to every outgoing request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return base.RoundTrip(clone)
}

// classifyChatError maps go-openai API errors onto the shared sentinels.
// The raw error body is truncated so credentials never reach the logs.
func classifyChatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apierr.BodySnippet([]byte(apiErr.Message))
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if strings.Contains(apiErr.Message, "quota") || strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", msg, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", msg, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", msg, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", msg, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", msg, apierr.ErrBadRequest)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%s: %w", msg, apierr.ErrServer)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	return err
}
