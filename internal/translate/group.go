package translate

import (
	"regexp"
	"strings"

	"github.com/lgezyxr/subgen/internal/subtitle"
)

// sentenceEndPattern matches source text that closes a sentence, allowing
// trailing quotes and closing brackets after the terminal punctuation.
var sentenceEndPattern = regexp.MustCompile(`[.!?。！？…]["'）)\]\s]*$`)

// Grouping bounds how far segments may be merged into one sentence.
type Grouping struct {
	MaxGapSec     float64
	MaxGroupSize  int
	MaxGroupChars int
}

// Grouping defaults.
const (
	DefaultMaxGapSec     = 1.5
	DefaultMaxGroupSize  = 10
	DefaultMaxGroupChars = 400
)

func (g *Grouping) normalize() {
	if g.MaxGapSec <= 0 {
		g.MaxGapSec = DefaultMaxGapSec
	}
	if g.MaxGroupSize < 1 {
		g.MaxGroupSize = DefaultMaxGroupSize
	}
	if g.MaxGroupChars < 1 {
		g.MaxGroupChars = DefaultMaxGroupChars
	}
}

// Group is a contiguous run of segments forming one sentence for
// translation purposes.
type Group struct {
	Segments []subtitle.Segment
}

// SourceText joins the segments' trimmed texts with single spaces.
func (g Group) SourceText() string {
	parts := make([]string, 0, len(g.Segments))
	for _, seg := range g.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Words concatenates the word sequences of all segments in order.
func (g Group) Words() []subtitle.Word {
	var words []subtitle.Word
	for _, seg := range g.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// Start returns the group's first segment start.
func (g Group) Start() float64 { return g.Segments[0].Start }

// End returns the group's last segment end.
func (g Group) End() float64 { return g.Segments[len(g.Segments)-1].End }

func (g Group) chars() int {
	n := 0
	for _, seg := range g.Segments {
		n += len(strings.TrimSpace(seg.Text))
	}
	return n
}

// GroupSegments partitions segments into sentence groups, greedily
// left-to-right. A group closes when its last segment ends with terminal
// punctuation, when the silence gap to the next segment exceeds MaxGapSec,
// or when appending the next segment would exceed the size or character
// budget. Every segment lands in exactly one group.
func GroupSegments(segments []subtitle.Segment, cfg Grouping) []Group {
	cfg.normalize()
	if len(segments) == 0 {
		return nil
	}

	var groups []Group
	cur := Group{Segments: []subtitle.Segment{segments[0]}}
	for _, seg := range segments[1:] {
		last := cur.Segments[len(cur.Segments)-1]
		endsSentence := sentenceEndPattern.MatchString(strings.TrimSpace(last.Text))
		gapTooWide := seg.Start-last.End > cfg.MaxGapSec
		tooLong := len(cur.Segments)+1 > cfg.MaxGroupSize ||
			cur.chars()+len(strings.TrimSpace(seg.Text)) > cfg.MaxGroupChars

		if endsSentence || gapTooWide || tooLong {
			groups = append(groups, cur)
			cur = Group{Segments: []subtitle.Segment{seg}}
			continue
		}
		cur.Segments = append(cur.Segments, seg)
	}
	return append(groups, cur)
}
