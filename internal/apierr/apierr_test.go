package apierr_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lgezyxr/subgen/internal/apierr"
)

func fastRetry(maxRetries int) apierr.RetryConfig {
	return apierr.RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestRetrySucceedsAfterTransientErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := apierr.RetryWithBackoff(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", apierr.ErrServer
		}
		return "ok", nil
	}, apierr.IsRetryable)
	if err != nil {
		t.Fatalf("RetryWithBackoff: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls, want \"ok\" after 3", got, calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := apierr.RetryWithBackoff(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		return 0, apierr.ErrAuthFailed
	}, apierr.IsRetryable)
	if !errors.Is(err, apierr.ErrAuthFailed) {
		t.Errorf("err = %v, want ErrAuthFailed", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := apierr.RetryWithBackoff(context.Background(), fastRetry(2), func() (int, error) {
		calls++
		return 0, apierr.ErrRateLimit
	}, apierr.IsRetryable)
	if !errors.Is(err, apierr.ErrRateLimit) {
		t.Errorf("err = %v, want wrapped ErrRateLimit", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3 (1 attempt + 2 retries)", calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := apierr.RetryWithBackoff(ctx, fastRetry(5), func() (int, error) {
		cancel()
		return 0, apierr.ErrServer
	}, apierr.IsRetryable)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{apierr.ErrRateLimit, true},
		{apierr.ErrTimeout, true},
		{apierr.ErrServer, true},
		{apierr.ErrAuthFailed, false},
		{apierr.ErrQuotaExceeded, false},
		{apierr.ErrBadRequest, false},
		{context.Canceled, false},
		{errors.New("unclassified"), false},
	}
	for _, tc := range tests {
		if got := apierr.IsRetryable(tc.err); got != tc.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestBodySnippetTruncates(t *testing.T) {
	t.Parallel()

	short := []byte("short body")
	if got := apierr.BodySnippet(short); got != "short body" {
		t.Errorf("short body changed: %q", got)
	}
	long := []byte(strings.Repeat("x", 2048))
	got := apierr.BodySnippet(long)
	if !strings.HasSuffix(got, "... (truncated)") {
		t.Errorf("long body not truncated: %q", got[len(got)-30:])
	}
	if len(got) > 1024+len("... (truncated)") {
		t.Errorf("snippet too long: %d bytes", len(got))
	}
}
