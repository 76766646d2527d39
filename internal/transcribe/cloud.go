package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lgezyxr/subgen/internal/apierr"
	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// maxCloudFileSize is the OpenAI transcription API upload limit.
const maxCloudFileSize = 25 * 1024 * 1024

func init() {
	Register("cloud", func(s Settings) (Recognizer, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("cloud transcription requires an API key")
		}
		model := s.Model
		if model == "" {
			model = openai.Whisper1
		}
		return &CloudRecognizer{
			client: openai.NewClient(s.APIKey),
			model:  model,
			retry:  apierr.DefaultRetryConfig(),
		}, nil
	})
}

// audioTranscriber is the slice of *openai.Client this adapter needs.
// Tests inject a scripted implementation.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var _ audioTranscriber = (*openai.Client)(nil)

// CloudRecognizer transcribes via the OpenAI audio API with verbose JSON
// output, which carries per-segment timestamps.
type CloudRecognizer struct {
	client audioTranscriber
	model  string
	retry  apierr.RetryConfig
}

func (r *CloudRecognizer) Name() string  { return "cloud" }
func (r *CloudRecognizer) Model() string { return r.model }

func (r *CloudRecognizer) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}
	if info.Size() > maxCloudFileSize {
		return nil, fmt.Errorf("%.1f MB exceeds the 25 MB API limit, use the local provider for long media: %w",
			float64(info.Size())/1024/1024, ErrFileTooLarge)
	}

	req := openai.AudioRequest{
		Model:    r.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if opts.Language != "" && opts.Language != lang.Auto {
		// The API accepts only ISO 639-1 base codes.
		req.Language = lang.BaseCode(opts.Language)
	}

	if opts.Progress != nil {
		opts.Progress(0, 100)
	}
	resp, err := apierr.RetryWithBackoff(ctx, r.retry, func() (openai.AudioResponse, error) {
		resp, err := r.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, classifyOpenAIError(err)
		}
		return resp, nil
	}, apierr.IsRetryable)
	if err != nil {
		return nil, fmt.Errorf("cloud transcription: %w", err)
	}
	if opts.Progress != nil {
		opts.Progress(100, 100)
	}

	result := &Result{Language: resp.Language}
	if result.Language == "" {
		result.Language = lang.BaseCode(opts.Language)
	}
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, subtitle.Segment{
			Start:        seg.Start,
			End:          seg.End,
			Text:         text,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogprob:   seg.AvgLogprob,
		})
	}
	return result, nil
}

// classifyOpenAIError maps go-openai API errors onto the shared sentinels
// so the retry policy can tell transient failures from permanent ones.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if strings.Contains(apiErr.Message, "quota") || strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrServer)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	return err
}
