package translate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lgezyxr/subgen/internal/subtitle"
	"github.com/lgezyxr/subgen/internal/translate"
)

func translated(text, translation string) subtitle.Segment {
	return subtitle.Segment{Text: text, Translated: translation}
}

func TestProofreadAppliesCorrections(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		translated("Hello.", "你好。"),
		translated("Goodbye.", "再会。"),
	}
	client := &fakeLLM{replies: []string{"1: 你好。\n2: 再见。"}}

	out, err := translate.NewProofreader(client, translate.ProofreadConfig{}).
		Proofread(context.Background(), segments, nil)
	if err != nil {
		t.Fatalf("Proofread: %v", err)
	}
	if out[0].Translated != "你好。" || out[0].TranslatedRaw != "" {
		t.Errorf("unchanged segment = %+v", out[0])
	}
	if out[1].Translated != "再见。" || out[1].TranslatedRaw != "再会。" {
		t.Errorf("corrected segment = %+v", out[1])
	}

	// The input slice stays untouched.
	if segments[1].Translated != "再会。" {
		t.Errorf("input mutated: %+v", segments[1])
	}
}

func TestProofreadKeepsMissingIndexes(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		translated("One.", "一。"),
		translated("Two.", "二。"),
	}
	client := &fakeLLM{replies: []string{"1: 壹。"}}

	out, err := translate.NewProofreader(client, translate.ProofreadConfig{}).
		Proofread(context.Background(), segments, nil)
	if err != nil {
		t.Fatalf("Proofread: %v", err)
	}
	if out[0].Translated != "壹。" {
		t.Errorf("segment 0 = %+v", out[0])
	}
	if out[1].Translated != "二。" {
		t.Errorf("missing correction should keep translation: %+v", out[1])
	}
}

func TestProofreadIdempotentWithDeterministicLLM(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		translated("Hello.", "你好。"),
		translated("Bye.", "拜拜。"),
	}
	echo := func(prompt string) (string, error) {
		// Return each translation unchanged.
		var b strings.Builder
		for _, line := range strings.Split(prompt, "\n") {
			if i := strings.Index(line, " => "); i > 0 && line[0] >= '1' && line[0] <= '9' {
				idx, _, _ := strings.Cut(line, ":")
				b.WriteString(idx + ": " + line[i+4:] + "\n")
			}
		}
		return b.String(), nil
	}

	p := translate.NewProofreader(&fakeLLM{handler: echo}, translate.ProofreadConfig{})
	once, err := p.Proofread(context.Background(), segments, nil)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := p.Proofread(context.Background(), once, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range once {
		if once[i].Translated != twice[i].Translated {
			t.Errorf("segment %d not idempotent: %q != %q", i, once[i].Translated, twice[i].Translated)
		}
	}
}

func TestProofreadWindowsAndProgress(t *testing.T) {
	t.Parallel()

	var segments []subtitle.Segment
	for i := 0; i < 5; i++ {
		segments = append(segments, translated("src", "tgt"))
	}
	client := &fakeLLM{handler: func(string) (string, error) {
		return "1: tgt\n2: tgt", nil
	}}

	var currents []int
	_, err := translate.NewProofreader(client, translate.ProofreadConfig{BatchSize: 2}).
		Proofread(context.Background(), segments, func(current, total int) {
			currents = append(currents, current)
			if total != 5 {
				t.Errorf("total = %d, want 5", total)
			}
		})
	if err != nil {
		t.Fatalf("Proofread: %v", err)
	}
	want := []int{2, 4, 5}
	if len(currents) != len(want) {
		t.Fatalf("progress = %v, want %v", currents, want)
	}
	for i := range want {
		if currents[i] != want[i] {
			t.Fatalf("progress = %v, want cumulative %v", currents, want)
		}
	}
}

func TestProofreadRollingContext(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		translated("First.", "第一。"),
		translated("Second.", "第二。"),
	}
	client := &fakeLLM{handler: func(string) (string, error) { return "1: ok", nil }}

	_, err := translate.NewProofreader(client, translate.ProofreadConfig{BatchSize: 1}).
		Proofread(context.Background(), segments, nil)
	if err != nil {
		t.Fatal(err)
	}
	second := client.prompts[1]
	if !strings.Contains(second, "First. => ok") {
		t.Errorf("second window missing reviewed context:\n%s", second)
	}
}

func TestProofreadErrorWrapsSentinel(t *testing.T) {
	t.Parallel()

	client := &fakeLLM{err: errors.New("boom")}
	_, err := translate.NewProofreader(client, translate.ProofreadConfig{}).
		Proofread(context.Background(), []subtitle.Segment{translated("a", "b")}, nil)
	if !errors.Is(err, translate.ErrProofreadFailed) {
		t.Errorf("err = %v, want ErrProofreadFailed", err)
	}
}
