package subtitle

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lgezyxr/subgen/internal/styles"
)

const assEventsHeader = "\n[Events]\n" +
	"Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n"

// EncodeASS writes segments as an ASS document with the profile's primary
// and secondary styles. Bilingual cues are a single Dialogue line: the
// translation in the primary style, then \N and the source text switched
// to the secondary style with an inline {\r...} reset.
func EncodeASS(w io.Writer, segments []Segment, profile styles.StyleProfile, bilingual bool) error {
	header, err := styles.ASSHeader(profile)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, assEventsHeader); err != nil {
		return err
	}
	for _, seg := range segments {
		var text string
		if bilingual && seg.Translated != "" && seg.Text != "" {
			text = escapeASSText(seg.Translated) +
				`\N{\r` + styles.SecondaryStyleName + `}` +
				escapeASSText(seg.Text)
		} else {
			text = escapeASSText(seg.DisplayText())
		}
		_, err := fmt.Fprintf(w, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			ASSTime(seg.Start), ASSTime(seg.End), styles.PrimaryStyleName, text)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteASS writes segments to path as ASS.
func WriteASS(path string, segments []Segment, profile styles.StyleProfile, bilingual bool) error {
	var b strings.Builder
	if err := EncodeASS(&b, segments, profile, bilingual); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// escapeASSText neutralizes characters ASS interprets inside Dialogue text:
// braces open override blocks and literal newlines break the line format.
func escapeASSText(s string) string {
	s = strings.ReplaceAll(s, "{", `\{`)
	s = strings.ReplaceAll(s, "}", `\}`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", `\N`)
	return s
}
