package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/llm"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// redistribute maps each group's translation back onto word timestamps.
// Groups are independent here, so the split calls run concurrently; the
// results are reassembled by group index to keep temporal order.
func (t *Translator) redistribute(ctx context.Context, groups []Group, translations []string) ([]subtitle.Segment, error) {
	results := make([][]subtitle.Segment, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Parallelism)
	for i := range groups {
		g.Go(func() error {
			results[i] = t.splitGroup(ctx, groups[i], translations[i])
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []subtitle.Segment
	for _, segs := range results {
		out = append(out, segs...)
	}
	return out, nil
}

// splitGroup turns one translated group into output segments. Single
// segments keep their own timing; multi-segment groups are re-split at
// word boundaries chosen by the LLM, falling back to one merged segment
// when no valid split exists. Every source word of the group appears in
// exactly one returned segment.
func (t *Translator) splitGroup(ctx context.Context, group Group, translation string) []subtitle.Segment {
	if len(group.Segments) == 1 {
		seg := group.Segments[0]
		seg.Translated = translation
		return []subtitle.Segment{seg}
	}

	words := group.Words()
	if len(words) < 2 {
		return []subtitle.Segment{mergedSegment(group, translation)}
	}

	fragments, err := t.requestSplit(ctx, group, translation, len(words))
	if err != nil {
		slog.Debug("split request failed, keeping whole group", "error", err)
		return []subtitle.Segment{mergedSegment(group, translation)}
	}
	segs, ok := applySplit(words, fragments, translation)
	if !ok {
		return []subtitle.Segment{mergedSegment(group, translation)}
	}
	return segs
}

// mergedSegment spans the whole group with the full translation.
func mergedSegment(group Group, translation string) subtitle.Segment {
	return subtitle.Segment{
		Start:      group.Start(),
		End:        group.End(),
		Text:       group.SourceText(),
		Translated: translation,
		Words:      group.Words(),
	}
}

// fragment is one split part with the 1-based index of the last source
// word it covers.
type fragment struct {
	text     string
	lastWord int
}

// requestSplit asks the LLM to break the translation at natural points,
// anchored to source word indexes.
func (t *Translator) requestSplit(ctx context.Context, group Group, translation string, wordCount int) ([]fragment, error) {
	words := group.Words()
	numbered := make([]string, len(words))
	for i, w := range words {
		numbered[i] = fmt.Sprintf("%d:%s", i+1, w.Text)
	}

	prompt := fmt.Sprintf(`The following %s translation corresponds to one sentence of %d numbered source words.

Translation: %s
Source words: %s

Split the translation into at most %d parts at natural break points so the parts can be shown as consecutive subtitles. Reply with one part per line in the form "J: part", where J is the index of the LAST source word that part covers. The J values must be strictly increasing and the final J must be %d.`,
		lang.DisplayName(t.cfg.TargetLang), wordCount, translation,
		strings.Join(numbered, " "), len(group.Segments), wordCount)

	reply, err := t.client.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Params{})
	if err != nil {
		return nil, err
	}
	return parseFragments(reply)
}

// parseFragments reads "J: part" lines in order.
func parseFragments(reply string) ([]fragment, error) {
	var fragments []fragment
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := numberedLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		fragments = append(fragments, fragment{text: strings.TrimSpace(m[2]), lastWord: idx})
	}
	if len(fragments) == 0 {
		return nil, fmt.Errorf("no fragments in split reply")
	}
	return fragments, nil
}

// applySplit validates the fragment indexes and emits one segment per
// fragment. Indexes must be strictly increasing and stay within the word
// count. When the last fragment stops short of the final word, the
// trailing words become one more segment carrying the translation's
// remaining tail, so no source word is ever dropped.
func applySplit(words []subtitle.Word, fragments []fragment, translation string) ([]subtitle.Segment, bool) {
	prev := 0
	for _, f := range fragments {
		if f.lastWord <= prev || f.lastWord > len(words) || f.text == "" {
			return nil, false
		}
		prev = f.lastWord
	}

	var segs []subtitle.Segment
	prev = 0
	remaining := translation
	for _, f := range fragments {
		covered := words[prev:f.lastWord]
		segs = append(segs, segmentFromWords(covered, f.text))
		prev = f.lastWord
		if tail, ok := cutFragment(remaining, f.text); ok {
			remaining = tail
		} else {
			remaining = ""
		}
	}

	if prev < len(words) {
		tail := remaining
		if tail == "" {
			tail = translation
		}
		segs = append(segs, segmentFromWords(words[prev:], tail))
	}
	return segs, true
}

func segmentFromWords(words []subtitle.Word, translation string) subtitle.Segment {
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	return subtitle.Segment{
		Start:      words[0].Start,
		End:        words[len(words)-1].End,
		Text:       strings.Join(texts, " "),
		Translated: translation,
		Words:      words,
	}
}

// cutFragment removes a leading fragment from the remaining translation,
// tolerating surrounding whitespace.
func cutFragment(remaining, frag string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(remaining), strings.TrimSpace(frag))
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
