package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// EmbedMode selects how subtitles are attached to a video.
type EmbedMode string

const (
	// EmbedSoft muxes the subtitle file as a separate stream.
	EmbedSoft EmbedMode = "soft"
	// EmbedHard burns the subtitles into the video frames.
	EmbedHard EmbedMode = "hard"
)

// EmbedSubtitle writes a copy of the video with the subtitle file attached.
func (t Tools) EmbedSubtitle(ctx context.Context, videoPath, subtitlePath, outPath string, mode EmbedMode) error {
	switch mode {
	case EmbedSoft:
		return t.muxSubtitle(ctx, videoPath, subtitlePath, outPath)
	case EmbedHard:
		return t.burnSubtitle(ctx, videoPath, subtitlePath, outPath)
	default:
		return fmt.Errorf("embed mode %q (valid: soft, hard): %w", mode, ErrEmbedFailed)
	}
}

// muxSubtitle adds the subtitles as a stream without re-encoding. MP4
// containers only accept mov_text subtitle streams.
func (t Tools) muxSubtitle(ctx context.Context, videoPath, subtitlePath, outPath string) error {
	if err := t.requireFFmpeg(); err != nil {
		return err
	}
	codec := "srt"
	if strings.EqualFold(filepath.Ext(outPath), ".mp4") {
		codec = "mov_text"
	}
	err := t.run(ctx, t.FFmpeg,
		"-i", videoPath,
		"-i", subtitlePath,
		"-c", "copy",
		"-c:s", codec,
		"-y",
		"-loglevel", "error",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrEmbedFailed)
	}
	return nil
}

// burnSubtitle re-encodes the video with the subtitles rendered into the
// frames.
func (t Tools) burnSubtitle(ctx context.Context, videoPath, subtitlePath, outPath string) error {
	if err := t.requireFFmpeg(); err != nil {
		return err
	}
	err := t.run(ctx, t.FFmpeg,
		"-i", videoPath,
		"-vf", "subtitles="+escapeFilterPath(subtitlePath),
		"-c:a", "copy",
		"-y",
		"-loglevel", "error",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrEmbedFailed)
	}
	return nil
}

// filterMetachars are the characters the ffmpeg filter grammar assigns
// meaning to; each must be escaped inside a subtitles= argument.
const filterMetachars = `\:,;=@'[]`

// escapeFilterPath makes a filesystem path safe for use inside an ffmpeg
// filter expression. Windows separators become forward slashes first so
// backslashes never double as both separator and escape.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	var b strings.Builder
	for _, r := range path {
		if strings.ContainsRune(filterMetachars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
