package llm

import (
	"context"
	"net/http"

	anyllm "github.com/mozilla-ai/any-llm-go"

	"github.com/lgezyxr/subgen/internal/apierr"
)

// Test-only accessors.

var (
	ValidateBaseURL   = validateBaseURL
	ClassifyChatError = classifyChatError
)

// NewOpenAIWithClient builds an OpenAI-compatible client around a scripted
// chat completer.
func NewOpenAIWithClient(client chatCompleter, name, model string, retry apierr.RetryConfig) *OpenAIClient {
	return &OpenAIClient{client: client, name: name, model: model, retry: retry}
}

// NewAnyLLMWithComplete builds an any-llm client around a scripted
// completion function.
func NewAnyLLMWithComplete(complete func(ctx context.Context, params anyllm.CompletionParams) (string, error), name, model string) *AnyLLMClient {
	return &AnyLLMClient{complete: complete, name: name, model: model}
}

// NewHeaderTransport wraps base with static request headers.
func NewHeaderTransport(headers map[string]string, base http.RoundTripper) http.RoundTripper {
	return &headerTransport{headers: headers, base: base}
}
