package component

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lgezyxr/subgen/internal/apierr"
)

// Progress reports download advancement in bytes. total is 0 when the
// server does not announce a length.
type Progress func(downloaded, total int64)

const downloadAttempts = 3

// download streams url into dest, resuming with HTTP Range requests after
// transient failures. dest must be a unique per-download temp file so
// concurrent installs never collide.
func (m *Manager) download(ctx context.Context, url, dest string, onProgress Progress) error {
	var lastErr error
	for attempt := 0; attempt < downloadAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			slog.Debug("retrying download", "attempt", attempt+1)
		}
		err := m.downloadOnce(ctx, url, dest, onProgress)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		if !apierr.IsRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("download failed after %d attempts: %w", downloadAttempts, lastErr)
}

func (m *Manager) downloadOnce(ctx context.Context, url, dest string, onProgress Progress) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening download file: %w", err)
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apierr.ErrBadRequest)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apierr.ErrTimeout)
	}
	defer resp.Body.Close()

	total := offset + resp.ContentLength
	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the Range header, start over.
		if offset > 0 {
			if err := f.Truncate(0); err != nil {
				return err
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}
			offset = 0
		}
		total = resp.ContentLength
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// Already fully downloaded on a previous attempt.
		return nil
	default:
		if resp.StatusCode >= 500 {
			return fmt.Errorf("HTTP %d from %s: %w", resp.StatusCode, url, apierr.ErrServer)
		}
		return fmt.Errorf("HTTP %d from %s: %w", resp.StatusCode, url, apierr.ErrBadRequest)
	}
	if total < 0 {
		total = 0
	}

	buf := make([]byte, 64*1024)
	downloaded := offset
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return fmt.Errorf("writing download: %w", err)
			}
			downloaded += int64(n)
			if onProgress != nil {
				onProgress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%v: %w", readErr, apierr.ErrTimeout)
		}
	}
}

// verifyChecksum compares a file's SHA-256 against the registry value.
func verifyChecksum(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return fmt.Errorf("expected %s, got %s: %w", expected, actual, ErrIntegrityMismatch)
	}
	return nil
}
