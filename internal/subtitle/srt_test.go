package subtitle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lgezyxr/subgen/internal/subtitle"
)

func TestEncodeSRT(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		{Start: 0, End: 1.2, Text: "Hello.", Translated: "你好。"},
		{Start: 1.3, End: 2.9, Text: "How are you?", Translated: "你好吗？"},
	}

	var b strings.Builder
	if err := subtitle.EncodeSRT(&b, segments, false); err != nil {
		t.Fatalf("EncodeSRT: %v", err)
	}
	got := b.String()

	want := "1\n00:00:00,000 --> 00:00:01,200\n你好。\n\n" +
		"2\n00:00:01,300 --> 00:00:02,900\n你好吗？\n\n"
	if got != want {
		t.Errorf("EncodeSRT output:\n%q\nwant:\n%q", got, want)
	}
}

func TestEncodeSRTBilingualOrder(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		{Start: 0, End: 1, Text: "Hello.", Translated: "你好。"},
	}
	var b strings.Builder
	if err := subtitle.EncodeSRT(&b, segments, true); err != nil {
		t.Fatalf("EncodeSRT: %v", err)
	}
	if !strings.Contains(b.String(), "Hello.\n你好。\n") {
		t.Errorf("bilingual cue must be source line first, translation second:\n%s", b.String())
	}
}

func TestSRTWriteThenReadBilingual(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		{Start: 0, End: 1.2, Text: "Hello.", Translated: "你好。"},
		{Start: 1.3, End: 2.4, Text: "How are", Translated: "你"},
		{Start: 2.4, End: 2.9, Text: "you?", Translated: "好吗？"},
	}

	var b strings.Builder
	if err := subtitle.EncodeSRT(&b, segments, true); err != nil {
		t.Fatalf("EncodeSRT: %v", err)
	}
	back, err := subtitle.ParseSRT(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(back) != len(segments) {
		t.Fatalf("got %d cues, want %d", len(back), len(segments))
	}
	for i, seg := range segments {
		if back[i].Text != seg.Text {
			t.Errorf("cue %d: Text = %q, want %q", i, back[i].Text, seg.Text)
		}
		if back[i].Translated != seg.Translated {
			t.Errorf("cue %d: Translated = %q, want %q", i, back[i].Translated, seg.Translated)
		}
		if back[i].Start != seg.Start || back[i].End != seg.End {
			t.Errorf("cue %d: span [%v,%v], want [%v,%v]",
				i, back[i].Start, back[i].End, seg.Start, seg.End)
		}
	}
}

func TestParseSRTSingleLineCue(t *testing.T) {
	t.Parallel()

	in := "1\n00:00:00,000 --> 00:00:01,000\n字幕行\n\n"
	segs, err := subtitle.ParseSRT(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d cues", len(segs))
	}
	// Single-line cues populate both fields so later stages can proofread them.
	if segs[0].Text != "字幕行" || segs[0].Translated != "字幕行" {
		t.Errorf("cue = %+v", segs[0])
	}
}

func TestParseSRTToleratesDotMillisAndBOM(t *testing.T) {
	t.Parallel()

	in := "\ufeff1\n00:00:00.500 --> 00:00:01.000\nhi\n\n"
	segs, err := subtitle.ParseSRT(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(segs) != 1 || segs[0].Start != 0.5 {
		t.Errorf("segs = %+v", segs)
	}
}

func TestParseSRTMissingTiming(t *testing.T) {
	t.Parallel()

	in := "1\nnot a timing line\ntext\n\n"
	if _, err := subtitle.ParseSRT(strings.NewReader(in)); !errors.Is(err, subtitle.ErrBadCue) {
		t.Errorf("ParseSRT = %v, want ErrBadCue", err)
	}
}

func TestWriteDispatchEmpty(t *testing.T) {
	t.Parallel()

	err := subtitle.Write(t.TempDir()+"/out.srt", subtitle.FormatSRT, nil, stylesDefault(), false)
	if !errors.Is(err, subtitle.ErrNoSegments) {
		t.Errorf("Write(empty) = %v, want ErrNoSegments", err)
	}
}
