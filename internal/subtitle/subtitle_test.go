package subtitle_test

import (
	"errors"
	"testing"

	"github.com/lgezyxr/subgen/internal/subtitle"
)

func TestSRTTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.2, "00:00:01,200"},
		{61.5, "00:01:01,500"},
		{3661.042, "01:01:01,042"},
		{1.9996, "00:00:02,000"}, // millisecond rounding carries into seconds
		{59.9999, "00:01:00,000"},
		{-0.5, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := subtitle.SRTTime(tt.sec); got != tt.want {
			t.Errorf("SRTTime(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestVTTTime(t *testing.T) {
	t.Parallel()

	if got := subtitle.VTTTime(3661.042); got != "01:01:01.042" {
		t.Errorf("VTTTime = %q", got)
	}
	if got := subtitle.VTTTime(1.9996); got != "00:00:02.000" {
		t.Errorf("VTTTime carry = %q", got)
	}
}

func TestASSTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sec  float64
		want string
	}{
		{0, "0:00:00.00"},
		{1.2, "0:00:01.20"},
		{3661.04, "1:01:01.04"},
		{59.996, "0:01:00.00"}, // centisecond rounding carries
	}
	for _, tt := range tests {
		if got := subtitle.ASSTime(tt.sec); got != tt.want {
			t.Errorf("ASSTime(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestDisplayText(t *testing.T) {
	t.Parallel()

	seg := subtitle.Segment{Text: "Hello.", Translated: "你好。"}
	if got := seg.DisplayText(); got != "你好。" {
		t.Errorf("DisplayText = %q, want translation", got)
	}
	seg.Translated = ""
	if got := seg.DisplayText(); got != "Hello." {
		t.Errorf("DisplayText = %q, want source text", got)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"srt", "vtt", "ass"} {
		if _, err := subtitle.ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%q): %v", name, err)
		}
	}
	if _, err := subtitle.ParseFormat("sub"); !errors.Is(err, subtitle.ErrUnknownFormat) {
		t.Errorf("ParseFormat(sub) = %v, want ErrUnknownFormat", err)
	}
}
