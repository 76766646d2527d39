package transcribe

import "github.com/lgezyxr/subgen/internal/apierr"

// Test-only accessors.

var (
	ParseWhisperJSON   = parseWhisperJSON
	ParseProgressLine  = parseProgressLine
	TimestampToSeconds = timestampToSeconds
	ClassifyOpenAIErr  = classifyOpenAIError
)

// NewCloudWithClient builds a cloud recognizer around a scripted client.
func NewCloudWithClient(client audioTranscriber, model string, retry apierr.RetryConfig) *CloudRecognizer {
	return &CloudRecognizer{client: client, model: model, retry: retry}
}
