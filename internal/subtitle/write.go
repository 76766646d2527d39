package subtitle

import (
	"github.com/lgezyxr/subgen/internal/styles"
)

// Write dispatches to the encoder for the given format.
func Write(path string, format Format, segments []Segment, profile styles.StyleProfile, bilingual bool) error {
	if len(segments) == 0 {
		return ErrNoSegments
	}
	switch format {
	case FormatSRT:
		return WriteSRT(path, segments, bilingual)
	case FormatVTT:
		return WriteVTT(path, segments, bilingual)
	case FormatASS:
		return WriteASS(path, segments, profile, bilingual)
	default:
		return ErrUnknownFormat
	}
}
