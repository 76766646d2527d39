package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Bilingual SRT convention: source line first, translated line second.
// ParseSRT applies the same convention, so writing and re-reading a
// bilingual file reproduces the original (text, translated) pairs.

var srtTimeLine = regexp.MustCompile(
	`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// EncodeSRT writes segments as SRT. In bilingual mode each cue carries the
// source text on the first line and the translation on the second.
func EncodeSRT(w io.Writer, segments []Segment, bilingual bool) error {
	for i, seg := range segments {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n", i+1, SRTTime(seg.Start), SRTTime(seg.End)); err != nil {
			return err
		}
		var lines string
		if bilingual && seg.Translated != "" && seg.Text != "" {
			lines = seg.Text + "\n" + seg.Translated
		} else {
			lines = seg.DisplayText()
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", lines); err != nil {
			return err
		}
	}
	return nil
}

// WriteSRT writes segments to path as SRT.
func WriteSRT(path string, segments []Segment, bilingual bool) error {
	var b strings.Builder
	if err := EncodeSRT(&b, segments, bilingual); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ParseSRT reads SRT cues. Two-line cues are treated as bilingual
// (source first, translated second); single-line cues fill both Text and
// Translated so that downstream proofreading has something to work on.
func ParseSRT(r io.Reader) ([]Segment, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var segments []Segment
	var block []string
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		seg, err := parseSRTBlock(block)
		if err != nil {
			return err
		}
		segments = append(segments, seg)
		block = nil
		return nil
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading subtitle: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return segments, nil
}

// ReadSRT reads an SRT file from disk.
func ReadSRT(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSRT(f)
}

func parseSRTBlock(block []string) (Segment, error) {
	// Optional numeric index line, then the timing line.
	i := 0
	if !srtTimeLine.MatchString(block[i]) {
		i++
		if i >= len(block) || !srtTimeLine.MatchString(block[i]) {
			return Segment{}, fmt.Errorf("no timing line in cue starting %q: %w", block[0], ErrBadCue)
		}
	}
	m := srtTimeLine.FindStringSubmatch(block[i])
	start := srtClock(m[1], m[2], m[3], m[4])
	end := srtClock(m[5], m[6], m[7], m[8])

	text := block[i+1:]
	seg := Segment{Start: start, End: end}
	switch len(text) {
	case 0:
		return Segment{}, fmt.Errorf("cue at %s has no text: %w", m[0], ErrBadCue)
	case 1:
		seg.Text = text[0]
		seg.Translated = text[0]
	default:
		seg.Text = text[0]
		seg.Translated = strings.Join(text[1:], "\n")
	}
	return seg, nil
}

// srtClock converts already-validated digit groups to seconds.
func srtClock(hh, mm, ss, mmm string) float64 {
	toInt := func(s string) float64 {
		var n int
		for _, c := range s {
			n = n*10 + int(c-'0')
		}
		return float64(n)
	}
	return toInt(hh)*3600 + toInt(mm)*60 + toInt(ss) + toInt(mmm)/1000
}
