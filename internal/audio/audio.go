// Package audio wraps the ffmpeg and ffprobe invocations the pipeline
// needs: audio extraction for transcription, duration probing, subtitle
// muxing and burn-in, and embedded subtitle track handling.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultExtractTimeout bounds one ffmpeg extraction run.
const DefaultExtractTimeout = 300 * time.Second

// Tools carries resolved tool paths. Empty paths mean the tool is absent;
// operations needing it fail with ErrToolMissing and an install hint.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Timeout time.Duration
}

func (t Tools) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultExtractTimeout
}

func (t Tools) requireFFmpeg() error {
	if t.FFmpeg == "" {
		return fmt.Errorf("ffmpeg is not installed, run 'subgen install ffmpeg' or install it system-wide: %w", ErrToolMissing)
	}
	return nil
}

func (t Tools) requireFFprobe() error {
	if t.FFprobe == "" {
		return fmt.Errorf("ffprobe is not installed, it usually ships with ffmpeg: %w", ErrToolMissing)
	}
	return nil
}

// ExtractAudio pulls the audio track of a video into a 16 kHz mono WAV
// under tempDir, the format the whisper models expect. The returned path
// is owned by the caller's cleanup list.
func (t Tools) ExtractAudio(ctx context.Context, videoPath, tempDir string) (string, error) {
	if err := t.requireFFmpeg(); err != nil {
		return "", err
	}
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("video file: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	audioPath := filepath.Join(tempDir, stem+"_audio.wav")

	err := t.run(ctx, t.FFmpeg,
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		"-loglevel", "error",
		audioPath,
	)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrExtractionFailed)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("ffmpeg produced no output file: %w", ErrExtractionFailed)
	}
	return audioPath, nil
}

// Duration returns the media duration in seconds via ffprobe.
func (t Tools) Duration(ctx context.Context, path string) (float64, error) {
	if err := t.requireFFprobe(); err != nil {
		return 0, err
	}
	out, err := t.output(ctx, t.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, ErrProbeFailed)
	}
	raw := strings.TrimSpace(out)
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("no duration in ffprobe output, file may be corrupted: %w", ErrProbeFailed)
	}
	sec, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", raw, ErrProbeFailed)
	}
	return sec, nil
}

// run executes a tool, discarding stdout. Stderr rides the error.
func (t Tools) run(ctx context.Context, tool string, args ...string) error {
	_, err := t.exec(ctx, tool, args, nil)
	return err
}

// output executes a tool and returns its stdout.
func (t Tools) output(ctx context.Context, tool string, args ...string) (string, error) {
	var stdout bytes.Buffer
	_, err := t.exec(ctx, tool, args, &stdout)
	return stdout.String(), err
}

func (t Tools) exec(ctx context.Context, tool string, args []string, stdout *bytes.Buffer) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", filepath.Base(tool), ctx.Err())
		}
		return "", fmt.Errorf("%s: %v: %s", filepath.Base(tool), err, tail(stderr.String(), 500))
	}
	return stderr.String(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
