package translate_test

import (
	"testing"

	"github.com/lgezyxr/subgen/internal/subtitle"
	"github.com/lgezyxr/subgen/internal/translate"
)

func seg(start, end float64, text string) subtitle.Segment {
	return subtitle.Segment{Start: start, End: end, Text: text}
}

func TestGroupSegmentsSentenceBoundary(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		seg(0.00, 1.20, "Hello."),
		seg(1.30, 2.40, "How are"),
		seg(2.40, 2.90, "you?"),
	}
	groups := translate.GroupSegments(segments, translate.Grouping{})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Segments) != 1 || groups[0].Segments[0].Text != "Hello." {
		t.Errorf("group 0 = %+v", groups[0].Segments)
	}
	if len(groups[1].Segments) != 2 || groups[1].SourceText() != "How are you?" {
		t.Errorf("group 1 = %+v", groups[1].Segments)
	}
}

func TestGroupSegmentsTrailingQuote(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		seg(0, 1, `"Stop!"`),
		seg(1.1, 2, "she said"),
	}
	groups := translate.GroupSegments(segments, translate.Grouping{})
	if len(groups) != 2 {
		t.Fatalf("quote after terminal punctuation should close the sentence, got %d groups", len(groups))
	}
}

func TestGroupSegmentsGap(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		seg(0, 1, "and then"),
		seg(4.0, 5.0, "something else"),
	}
	groups := translate.GroupSegments(segments, translate.Grouping{MaxGapSec: 1.5})
	if len(groups) != 2 {
		t.Fatalf("3s silence should split the group, got %d groups", len(groups))
	}
}

func TestGroupSegmentsSizeBudget(t *testing.T) {
	t.Parallel()

	var segments []subtitle.Segment
	for i := 0; i < 5; i++ {
		start := float64(i)
		segments = append(segments, seg(start, start+0.9, "and"))
	}
	groups := translate.GroupSegments(segments, translate.Grouping{MaxGroupSize: 2})
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3 with MaxGroupSize 2", len(groups))
	}
	for _, g := range groups[:2] {
		if len(g.Segments) != 2 {
			t.Errorf("group size = %d, want 2", len(g.Segments))
		}
	}
}

func TestGroupSegmentsCharBudget(t *testing.T) {
	t.Parallel()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	segments := []subtitle.Segment{
		seg(0, 1, string(long)),
		seg(1.1, 2, string(long)),
	}
	groups := translate.GroupSegments(segments, translate.Grouping{MaxGroupChars: 400})
	if len(groups) != 2 {
		t.Fatalf("600 chars should exceed the 400 budget, got %d groups", len(groups))
	}
}

func TestGroupSegmentsPartition(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		seg(0, 1, "One."),
		seg(1.1, 2, "two"),
		seg(2.1, 3, "three"),
		seg(6, 7, "four"),
		seg(7.1, 8, "five!"),
		seg(8.1, 9, "six"),
	}
	groups := translate.GroupSegments(segments, translate.Grouping{})

	var flattened []subtitle.Segment
	for _, g := range groups {
		flattened = append(flattened, g.Segments...)
	}
	if len(flattened) != len(segments) {
		t.Fatalf("partition lost or duplicated segments: %d != %d", len(flattened), len(segments))
	}
	for i := range segments {
		if flattened[i].Text != segments[i].Text {
			t.Errorf("segment %d out of order: %q != %q", i, flattened[i].Text, segments[i].Text)
		}
	}
}

func TestGroupSegmentsEmpty(t *testing.T) {
	t.Parallel()

	if groups := translate.GroupSegments(nil, translate.Grouping{}); groups != nil {
		t.Errorf("GroupSegments(nil) = %+v, want nil", groups)
	}
}
