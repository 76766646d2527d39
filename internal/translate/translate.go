// Package translate implements sentence-aware subtitle translation: it
// regroups transcript fragments into sentences, translates them through a
// batched LLM conversation with rolling context, and redistributes each
// translation back onto word-level timestamps.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/llm"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// Batching defaults.
const (
	DefaultBatchSize     = 20
	DefaultContextGroups = 5
	DefaultTailRetries   = 2
)

// Config tunes one translation run.
type Config struct {
	SourceLang      string
	TargetLang      string
	MaxCharsPerLine int

	BatchSize     int
	ContextGroups int
	TailRetries   int
	Grouping      Grouping

	// Parallelism bounds concurrent redistribution calls. 0 means
	// min(4, number of cores).
	Parallelism int

	// RulesDir overrides the embedded translation rules.
	RulesDir string
}

func (c *Config) normalize() {
	if c.TargetLang == "" {
		c.TargetLang = "zh"
	}
	if c.MaxCharsPerLine < 1 {
		c.MaxCharsPerLine = 40
	}
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ContextGroups < 0 {
		c.ContextGroups = DefaultContextGroups
	}
	if c.TailRetries < 0 {
		c.TailRetries = DefaultTailRetries
	}
	if c.Parallelism < 1 {
		c.Parallelism = min(4, runtime.NumCPU())
	}
	c.Grouping.normalize()
}

// Translator runs the sentence-aware pipeline against one LLM client.
type Translator struct {
	client llm.Client
	cfg    Config
	rules  string
}

// New builds a Translator. The target-language rules are resolved once at
// construction.
func New(client llm.Client, cfg Config) (*Translator, error) {
	cfg.normalize()
	rules, err := LoadRules(cfg.TargetLang, cfg.RulesDir)
	if err != nil {
		return nil, err
	}
	return &Translator{client: client, cfg: cfg, rules: rules}, nil
}

// Translate groups the segments into sentences, translates each group, and
// returns a new segment sequence with translations redistributed over word
// timestamps. The progress callback receives cumulative group counts.
func (t *Translator) Translate(ctx context.Context, segments []subtitle.Segment, progress func(current, total int)) ([]subtitle.Segment, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	groups := GroupSegments(segments, t.cfg.Grouping)
	translations, err := t.translateGroups(ctx, groups, progress)
	if err != nil {
		return nil, err
	}
	return t.redistribute(ctx, groups, translations)
}

// translateGroups returns one target-language string per group. Batches
// run sequentially because each prompt embeds the previous batches'
// translations as rolling context.
func (t *Translator) translateGroups(ctx context.Context, groups []Group, progress func(current, total int)) ([]string, error) {
	total := len(groups)
	translations := make([]string, total)
	system := t.systemPrompt()

	for start := 0; start < total; start += t.cfg.BatchSize {
		end := min(start+t.cfg.BatchSize, total)
		batch := groups[start:end]

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		got, err := t.translateBatch(ctx, system, batch, t.contextPairs(groups, translations, start))
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w: %w", start+1, end, err, ErrTranslationFailed)
		}
		copy(translations[start:end], got)

		if progress != nil {
			progress(end, total)
		}
	}
	return translations, nil
}

// contextPairs renders up to ContextGroups already-translated groups
// preceding batchStart as "source => target" lines.
func (t *Translator) contextPairs(groups []Group, translations []string, batchStart int) []string {
	first := max(0, batchStart-t.cfg.ContextGroups)
	var pairs []string
	for i := first; i < batchStart; i++ {
		if translations[i] == "" {
			continue
		}
		pairs = append(pairs, groups[i].SourceText()+" => "+translations[i])
	}
	return pairs
}

// translateBatch translates one batch of groups, retrying the missing tail
// as fresh sub-batches before falling back to source pass-through.
func (t *Translator) translateBatch(ctx context.Context, system string, batch []Group, contextPairs []string) ([]string, error) {
	reply, err := t.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: t.batchPrompt(batch, contextPairs)},
	}, llm.Params{})
	if err != nil {
		return nil, err
	}

	out := make([]string, len(batch))
	for idx, text := range parseNumbered(reply, len(batch)) {
		out[idx-1] = text
	}

	for attempt := 0; attempt < t.cfg.TailRetries; attempt++ {
		missing := missingIndexes(out)
		if len(missing) == 0 {
			break
		}
		sub := make([]Group, len(missing))
		for i, idx := range missing {
			sub[i] = batch[idx]
		}
		reply, err := t.client.Chat(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: t.batchPrompt(sub, nil)},
		}, llm.Params{})
		if err != nil {
			return nil, err
		}
		for idx, text := range parseNumbered(reply, len(sub)) {
			out[missing[idx-1]] = text
		}
	}

	// Whatever is still missing passes through untranslated.
	for _, idx := range missingIndexes(out) {
		slog.Warn("group not translated, keeping source text", "group", idx+1)
		out[idx] = batch[idx].SourceText()
	}
	return out, nil
}

func missingIndexes(out []string) []int {
	var missing []int
	for i, s := range out {
		if s == "" {
			missing = append(missing, i)
		}
	}
	return missing
}

func (t *Translator) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a professional subtitle translator. Your task is to translate %s subtitles into %s.

Requirements:
1. Preserve the original meaning while ensuring natural, fluent expression
2. Keep subtitles concise for screen display (max %d characters per line)
3. Maintain consistency across context
4. Keep proper nouns (names, places) consistent throughout
5. Use colloquial expressions, avoid overly formal language
`, sourceName(t.cfg.SourceLang), lang.DisplayName(t.cfg.TargetLang), t.cfg.MaxCharsPerLine)

	if t.rules != "" {
		fmt.Fprintf(&b, "\n%s translation rules (MUST follow strictly):\n%s\n",
			lang.DisplayName(t.cfg.TargetLang), t.rules)
	}

	b.WriteString(`
Output format:
- Reply with exactly one line per numbered entry, in the form "N: translation"
- Do not add explanations or extra lines`)
	return b.String()
}

func (t *Translator) batchPrompt(batch []Group, contextPairs []string) string {
	var b strings.Builder
	if len(contextPairs) > 0 {
		b.WriteString("Previously translated context:\n")
		for _, pair := range contextPairs {
			b.WriteString(pair)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Translate the following %d numbered subtitles (reply with the same numbering):\n\n", len(batch))
	for i, g := range batch {
		fmt.Fprintf(&b, "%d: %s\n", i+1, g.SourceText())
	}
	return b.String()
}

func sourceName(code string) string {
	if code == "" || code == lang.Auto {
		return "the source language"
	}
	return lang.DisplayName(code)
}
