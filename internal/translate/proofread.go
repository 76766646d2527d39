package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/llm"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// Proofreading defaults.
const (
	DefaultProofreadBatchSize    = 50
	DefaultProofreadContextChars = 15000
)

// ProofreadConfig tunes the second-pass review.
type ProofreadConfig struct {
	TargetLang string
	// BatchSize is the window of segments reviewed per call.
	BatchSize int
	// ContextChars caps the rolling prior context included in each call.
	ContextChars int
}

func (c *ProofreadConfig) normalize() {
	if c.TargetLang == "" {
		c.TargetLang = "zh"
	}
	if c.BatchSize < 1 {
		c.BatchSize = DefaultProofreadBatchSize
	}
	if c.ContextChars < 1 {
		c.ContextChars = DefaultProofreadContextChars
	}
}

// Proofreader reviews a fully translated segment sequence with rolling
// whole-document context to keep names, terms, and tone consistent.
type Proofreader struct {
	client llm.Client
	cfg    ProofreadConfig
}

// NewProofreader builds a Proofreader.
func NewProofreader(client llm.Client, cfg ProofreadConfig) *Proofreader {
	cfg.normalize()
	return &Proofreader{client: client, cfg: cfg}
}

// Proofread returns a corrected copy of the segments. Windows are
// processed in order; segments whose correction is missing from a reply
// keep their current translation. The original translation of a rewritten
// segment is preserved in TranslatedRaw. The progress callback receives
// cumulative segment counts.
func (p *Proofreader) Proofread(ctx context.Context, segments []subtitle.Segment, progress func(current, total int)) ([]subtitle.Segment, error) {
	out := make([]subtitle.Segment, len(segments))
	copy(out, segments)
	total := len(out)

	for start := 0; start < total; start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, total)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reply, err := p.client.Chat(ctx, []llm.Message{
			{Role: llm.RoleSystem, Content: p.systemPrompt()},
			{Role: llm.RoleUser, Content: p.windowPrompt(out, start, end)},
		}, llm.Params{})
		if err != nil {
			return nil, fmt.Errorf("window %d-%d: %w: %w", start+1, end, err, ErrProofreadFailed)
		}

		corrections := parseNumbered(reply, end-start)
		for i := start; i < end; i++ {
			corrected, ok := corrections[i-start+1]
			if !ok {
				slog.Warn("no correction returned, keeping translation", "segment", i+1)
				continue
			}
			if corrected != out[i].Translated {
				if out[i].TranslatedRaw == "" {
					out[i].TranslatedRaw = out[i].Translated
				}
				out[i].Translated = corrected
			}
		}

		if progress != nil {
			progress(end, total)
		}
	}
	return out, nil
}

func (p *Proofreader) systemPrompt() string {
	return fmt.Sprintf(`You are a professional subtitle proofreader reviewing %s subtitle translations.

Check each translation against its source for accuracy, consistency of names and terminology, and natural phrasing. Correct only what is wrong; keep good translations unchanged.

Output format:
- Reply with exactly one line per numbered entry, in the form "N: final translation"
- Return the translation unchanged when no correction is needed
- Do not add explanations`, lang.DisplayName(p.cfg.TargetLang))
}

// windowPrompt renders the window's (source, translation) pairs preceded
// by up to ContextChars of already-reviewed pairs.
func (p *Proofreader) windowPrompt(segments []subtitle.Segment, start, end int) string {
	var b strings.Builder

	if start > 0 {
		var context []string
		used := 0
		for i := start - 1; i >= 0; i-- {
			pair := segments[i].Text + " => " + segments[i].Translated
			if used+len(pair) > p.cfg.ContextChars {
				break
			}
			context = append(context, pair)
			used += len(pair)
		}
		if len(context) > 0 {
			b.WriteString("Already reviewed (for consistency):\n")
			for i := len(context) - 1; i >= 0; i-- {
				b.WriteString(context[i])
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "Review the following %d numbered translations:\n\n", end-start)
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%d: %s => %s\n", i-start+1, segments[i].Text, segments[i].Translated)
	}
	return b.String()
}
