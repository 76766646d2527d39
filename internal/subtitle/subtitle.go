// Package subtitle holds the timestamped subtitle data model and the
// SRT, WebVTT, and ASS encoders.
package subtitle

import (
	"fmt"
	"math"
)

// Word is a single token with its time span in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one timestamped unit of transcription output. Translated is
// empty until the translation stage fills it; TranslatedRaw keeps the
// pre-proofread translation when proofreading rewrites a segment.
type Segment struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Text          string  `json:"text"`
	Translated    string  `json:"translated,omitempty"`
	TranslatedRaw string  `json:"translated_raw,omitempty"`
	Words         []Word  `json:"words,omitempty"`
	NoSpeechProb  float64 `json:"no_speech_prob,omitempty"`
	AvgLogprob    float64 `json:"avg_logprob,omitempty"`
}

// DisplayText returns the text a monolingual subtitle line should show:
// the translation when present, the source text otherwise.
func (s Segment) DisplayText() string {
	if s.Translated != "" {
		return s.Translated
	}
	return s.Text
}

// Format identifies a subtitle output format.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// ParseFormat validates a format name from config or CLI flags.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatSRT, FormatVTT, FormatASS:
		return Format(name), nil
	default:
		return "", fmt.Errorf("subtitle format %q (valid: srt, vtt, ass): %w", name, ErrUnknownFormat)
	}
}

// Timestamp rendering. All three formats round to their own precision
// first and then decompose, so a value like 1.9996 s carries into the next
// second instead of printing 1000 ms.

// SRTTime renders seconds as HH:MM:SS,mmm.
func SRTTime(sec float64) string {
	ms := roundNonNegative(sec * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// VTTTime renders seconds as HH:MM:SS.mmm.
func VTTTime(sec float64) string {
	ms := roundNonNegative(sec * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// ASSTime renders seconds as H:MM:SS.cc (centisecond precision).
func ASSTime(sec float64) string {
	cs := roundNonNegative(sec * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d",
		cs/360000, cs/6000%60, cs/100%60, cs%100)
}

func roundNonNegative(v float64) int64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int64(math.Round(v))
}
