package translate

import "github.com/lgezyxr/subgen/internal/subtitle"

// Test-only accessors.

var (
	ParseNumbered  = parseNumbered
	ParseFragments = parseFragments
)

type Fragment = fragment

func NewFragment(text string, lastWord int) Fragment {
	return fragment{text: text, lastWord: lastWord}
}

func ApplySplit(words []subtitle.Word, fragments []Fragment, translation string) ([]subtitle.Segment, bool) {
	return applySplit(words, fragments, translation)
}
