package subtitle

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// EncodeVTT writes segments as WebVTT.
func EncodeVTT(w io.Writer, segments []Segment, bilingual bool) error {
	if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
		return err
	}
	for _, seg := range segments {
		if _, err := fmt.Fprintf(w, "%s --> %s\n", VTTTime(seg.Start), VTTTime(seg.End)); err != nil {
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

// WriteVTT writes segments to path as WebVTT.
func WriteVTT(path string, segments []Segment, bilingual bool) error {
	var b strings.Builder
	if err := EncodeVTT(&b, segments, bilingual); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
