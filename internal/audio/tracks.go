package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Track is one embedded subtitle stream of a video container.
type Track struct {
	// Index is the container stream index.
	Index int
	// StreamIndex counts subtitle streams only, for -map 0:s:N.
	StreamIndex int
	Codec       string
	Language    string
	Title       string
	IsText      bool
	IsDefault   bool
	IsForced    bool
}

// Text-based subtitle codecs are directly convertible to SRT. Image-based
// codecs (PGS, VobSub) would need OCR and are never selected.
var textCodecs = map[string]bool{
	"subrip": true, "srt": true, "ass": true, "ssa": true,
	"webvtt": true, "vtt": true, "mov_text": true, "text": true,
}

// iso639to2 maps the ISO 639-2 codes containers usually carry onto the
// two-letter codes the rest of the pipeline uses.
var iso639to2 = map[string]string{
	"eng": "en", "jpn": "ja", "jap": "ja", "chi": "zh", "zho": "zh",
	"cmn": "zh", "kor": "ko", "fra": "fr", "fre": "fr", "deu": "de",
	"ger": "de", "spa": "es", "ita": "it", "por": "pt", "rus": "ru",
	"ara": "ar", "hin": "hi", "tha": "th", "vie": "vi", "ind": "id",
	"msa": "ms", "may": "ms",
}

// NormalizeTrackLanguage maps container language tags to two-letter codes.
// Unknown three-letter codes fall back to their first two letters; "und"
// and empty tags yield "".
func NormalizeTrackLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "und" {
		return ""
	}
	if mapped, ok := iso639to2[tag]; ok {
		return mapped
	}
	if len(tag) >= 2 {
		return tag[:2]
	}
	return ""
}

type probeStreams struct {
	Streams []struct {
		Index     int    `json:"index"`
		CodecName string `json:"codec_name"`
		Tags      struct {
			Language string `json:"language"`
			Title    string `json:"title"`
		} `json:"tags"`
		Disposition struct {
			Default int `json:"default"`
			Forced  int `json:"forced"`
		} `json:"disposition"`
	} `json:"streams"`
}

// DetectSubtitleTracks lists the subtitle streams of a video. A video
// without subtitle streams yields an empty slice, not an error.
func (t Tools) DetectSubtitleTracks(ctx context.Context, videoPath string) ([]Track, error) {
	if err := t.requireFFprobe(); err != nil {
		return nil, err
	}
	out, err := t.output(ctx, t.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "s",
		videoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrProbeFailed)
	}
	return parseSubtitleStreams([]byte(out))
}

func parseSubtitleStreams(raw []byte) ([]Track, error) {
	var data probeStreams
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse ffprobe streams: %v: %w", err, ErrProbeFailed)
	}
	var tracks []Track
	for i, s := range data.Streams {
		codec := strings.ToLower(s.CodecName)
		tracks = append(tracks, Track{
			Index:       s.Index,
			StreamIndex: i,
			Codec:       codec,
			Language:    NormalizeTrackLanguage(s.Tags.Language),
			Title:       s.Tags.Title,
			IsText:      textCodecs[codec],
			IsDefault:   s.Disposition.Default == 1,
			IsForced:    s.Disposition.Forced == 1,
		})
	}
	return tracks, nil
}

// ExtractSubtitleTrack converts one text track to an SRT file.
func (t Tools) ExtractSubtitleTrack(ctx context.Context, videoPath string, track Track, outPath string) error {
	if err := t.requireFFmpeg(); err != nil {
		return err
	}
	if !track.IsText {
		return fmt.Errorf("track %d codec %q is image-based and needs OCR: %w",
			track.StreamIndex, track.Codec, ErrExtractionFailed)
	}
	err := t.run(ctx, t.FFmpeg,
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:s:%d", track.StreamIndex),
		"-c:s", "srt",
		"-loglevel", "error",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrExtractionFailed)
	}
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("track %d produced no usable output: %w", track.StreamIndex, ErrExtractionFailed)
	}
	return nil
}

// DetectVideoLanguage reads the language tag of the default (or first)
// audio stream. Returns "" when the container carries no tag.
func (t Tools) DetectVideoLanguage(ctx context.Context, videoPath string) string {
	if t.FFprobe == "" {
		return ""
	}
	out, err := t.output(ctx, t.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a",
		videoPath,
	)
	if err != nil {
		return ""
	}
	var data probeStreams
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		return ""
	}
	for _, s := range data.Streams {
		if s.Disposition.Default == 1 && s.Tags.Language != "" {
			return NormalizeTrackLanguage(s.Tags.Language)
		}
	}
	if len(data.Streams) > 0 {
		return NormalizeTrackLanguage(data.Streams[0].Tags.Language)
	}
	return ""
}

// TrackAction says how an embedded subtitle track should be used.
type TrackAction string

const (
	// UseTarget means a subtitle in the target language already exists.
	UseTarget TrackAction = "use_target"
	// UseSource means the track replaces transcription as the source text.
	UseSource TrackAction = "use_source"
	// Transcribe means no usable track exists.
	Transcribe TrackAction = "transcribe"
)

// FindBestTrack picks the most useful text track. A target-language track
// wins outright; otherwise a single track, a source-language match, the
// default track, or the first text track is used as source material.
func FindBestTrack(tracks []Track, sourceLang, targetLang string) (Track, TrackAction) {
	var text []Track
	for _, t := range tracks {
		if t.IsText {
			text = append(text, t)
		}
	}
	if len(text) == 0 {
		return Track{}, Transcribe
	}

	if targetLang != "" {
		for _, t := range text {
			if t.Language == targetLang {
				return t, UseTarget
			}
		}
	}
	if len(text) == 1 {
		return text[0], UseSource
	}
	if sourceLang != "" {
		for _, t := range text {
			if t.Language == sourceLang {
				return t, UseSource
			}
		}
	}
	for _, t := range text {
		if t.IsDefault {
			return t, UseSource
		}
	}
	return text[0], UseSource
}

// SubtitlePathFor names the subtitle file written next to a video, for
// example clip_zh.srt for clip.mp4 translated to Chinese.
func SubtitlePathFor(videoPath, langCode, ext string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return stem + "_" + langCode + "." + ext
}
