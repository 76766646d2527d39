// Package apierr provides shared error sentinels for HTTP-based API clients
// (LLM providers, cloud transcription, component downloads). Provider-specific
// error types are classified into these sentinels at the adapter boundary.
//
// Adapters map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid or expired credentials).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates a server-side error (5xx, retryable).
	ErrServer = errors.New("server error")

	// ErrEmptyResponse indicates the API returned a syntactically valid but empty reply.
	ErrEmptyResponse = errors.New("empty response")
)

// maxBodySnippet caps how much of an HTTP error body may appear in error
// messages. Full bodies can carry credentials or PII and must never be
// surfaced outside debug logs.
const maxBodySnippet = 1024

// BodySnippet returns at most 1 KB of an HTTP response body, suitable for
// inclusion in error messages.
func BodySnippet(body []byte) string {
	if len(body) <= maxBodySnippet {
		return string(body)
	}
	return string(body[:maxBodySnippet]) + "... (truncated)"
}
