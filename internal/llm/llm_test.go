package llm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	anyllm "github.com/mozilla-ai/any-llm-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lgezyxr/subgen/internal/apierr"
	"github.com/lgezyxr/subgen/internal/llm"
)

func TestNewUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := llm.New("bard", llm.Settings{})
	if !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	for _, provider := range []string{"openai", "deepseek", "copilot", "anthropic"} {
		if _, err := llm.New(provider, llm.Settings{}); !errors.Is(err, apierr.ErrAuthFailed) {
			t.Errorf("%s without key: err = %v, want ErrAuthFailed", provider, err)
		}
	}
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	valid := []string{
		"http://localhost:11434",
		"https://api.example.com/v1",
		"http://127.0.0.1:8080",
	}
	for _, u := range valid {
		if err := llm.ValidateBaseURL(u); err != nil {
			t.Errorf("ValidateBaseURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ftp://example.com",
		"file:///etc/passwd",
		"localhost:11434",
		"//missing-scheme",
		"https://",
		"",
	}
	for _, u := range invalid {
		if err := llm.ValidateBaseURL(u); !errors.Is(err, llm.ErrBadBaseURL) {
			t.Errorf("ValidateBaseURL(%q) = %v, want ErrBadBaseURL", u, err)
		}
	}
}

func TestNewRejectsBadURLs(t *testing.T) {
	t.Parallel()

	_, err := llm.New("openai", llm.Settings{APIKey: "sk-x", BaseURL: "ftp://proxy"})
	if !errors.Is(err, llm.ErrBadBaseURL) {
		t.Errorf("bad base_url: err = %v, want ErrBadBaseURL", err)
	}

	_, err = llm.New("ollama", llm.Settings{OllamaHost: "not a url"})
	if !errors.Is(err, llm.ErrBadBaseURL) {
		t.Errorf("bad ollama host: err = %v, want ErrBadBaseURL", err)
	}
}

// scriptedChat returns each response in order, then repeats the last.
type scriptedChat struct {
	calls     int
	requests  []openai.ChatCompletionRequest
	responses []openai.ChatCompletionResponse
	errs      []error
}

func (s *scriptedChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	if i >= len(s.errs) {
		i = len(s.errs) - 1
	}
	s.calls++
	return s.responses[i], s.errs[i]
}

func chatResponse(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func fastRetry() apierr.RetryConfig {
	return apierr.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestOpenAIChat(t *testing.T) {
	t.Parallel()

	mock := &scriptedChat{
		responses: []openai.ChatCompletionResponse{chatResponse("  你好。\n")},
		errs:      []error{nil},
	}
	c := llm.NewOpenAIWithClient(mock, "openai", "gpt-4o-mini", fastRetry())

	got, err := c.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "translate"},
		{Role: llm.RoleUser, Content: "Hello."},
	}, llm.Params{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "你好。" {
		t.Errorf("Chat = %q", got)
	}

	req := mock.requests[0]
	if req.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if req.Temperature != 0.3 {
		t.Errorf("temperature = %v, want default 0.3", req.Temperature)
	}
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	t.Parallel()

	mock := &scriptedChat{
		responses: []openai.ChatCompletionResponse{{}},
		errs:      []error{nil},
	}
	c := llm.NewOpenAIWithClient(mock, "openai", "gpt-4o-mini", fastRetry())

	_, err := c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.Params{})
	if !errors.Is(err, apierr.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAIChatRetriesServerError(t *testing.T) {
	t.Parallel()

	mock := &scriptedChat{
		responses: []openai.ChatCompletionResponse{{}, chatResponse("ok")},
		errs: []error{
			&openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"},
			nil,
		},
	}
	c := llm.NewOpenAIWithClient(mock, "deepseek", "deepseek-chat", fastRetry())

	got, err := c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.Params{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "ok" || mock.calls != 2 {
		t.Errorf("got %q after %d calls", got, mock.calls)
	}
}

func TestOpenAIChatDoesNotRetryAuthError(t *testing.T) {
	t.Parallel()

	mock := &scriptedChat{
		responses: []openai.ChatCompletionResponse{{}},
		errs:      []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}},
	}
	c := llm.NewOpenAIWithClient(mock, "openai", "gpt-4o-mini", fastRetry())

	_, err := c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, llm.Params{})
	if !errors.Is(err, apierr.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestClassifyChatErrorTruncatesBody(t *testing.T) {
	t.Parallel()

	huge := make([]byte, 4096)
	for i := range huge {
		huge[i] = 'x'
	}
	err := llm.ClassifyChatError(&openai.APIError{HTTPStatusCode: 500, Message: string(huge)})
	if !errors.Is(err, apierr.ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	if len(err.Error()) > 1200 {
		t.Errorf("error message length %d, want truncated to about 1 KB", len(err.Error()))
	}
}

func TestHeaderTransport(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: llm.NewHeaderTransport(map[string]string{
		"Editor-Version": "vscode/1.85.0",
	}, nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got.Get("Editor-Version") != "vscode/1.85.0" {
		t.Errorf("Editor-Version = %q", got.Get("Editor-Version"))
	}
}

func TestAnyLLMChat(t *testing.T) {
	t.Parallel()

	var captured anyllm.CompletionParams
	c := llm.NewAnyLLMWithComplete(func(_ context.Context, params anyllm.CompletionParams) (string, error) {
		captured = params
		return " bonjour ", nil
	}, "anthropic", "claude-3-5-haiku-latest")

	got, err := c.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "translate"},
		{Role: llm.RoleUser, Content: "hello"},
	}, llm.Params{MaxTokens: 1024})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "bonjour" {
		t.Errorf("Chat = %q", got)
	}
	if captured.Model != "claude-3-5-haiku-latest" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", captured.Temperature)
	}
	if captured.MaxTokens == nil || *captured.MaxTokens != 1024 {
		t.Errorf("max tokens = %v, want 1024", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestOllamaDoesNotRequireAuth(t *testing.T) {
	t.Parallel()

	c, err := llm.New("ollama", llm.Settings{})
	if err != nil {
		t.Fatalf("New(ollama): %v", err)
	}
	if c.RequiresAuth() {
		t.Error("ollama should not require auth")
	}
	if c.Name() != "ollama" {
		t.Errorf("Name = %q", c.Name())
	}
}
