// Package transcribe adapts external speech recognizers (the OpenAI cloud
// API and the local whisper.cpp binary) into the segment model.
package transcribe

import (
	"context"
	"fmt"

	"github.com/lgezyxr/subgen/internal/subtitle"
)

// Result is a recognizer's normalized output.
type Result struct {
	Segments []subtitle.Segment
	// Language is the detected (or forced) source language base code.
	Language string
}

// Options tunes one transcription run.
type Options struct {
	// Language forces the source language; empty or "auto" lets the
	// recognizer detect it.
	Language string
	// Progress receives percentage updates where available.
	Progress func(current, total int)
}

// Recognizer converts an audio file into timestamped segments.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error)
	Name() string
	Model() string
}

// Factory builds a recognizer from provider-specific settings.
type Factory func(Settings) (Recognizer, error)

// Settings carries everything any recognizer construction may need.
type Settings struct {
	Model      string
	APIKey     string
	EnginePath string
	ModelPath  string
	Threads    int
	TimeoutSec int
}

var factories = map[string]Factory{}

// Register adds a recognizer factory under a provider name. Called from
// init funcs of the adapter files.
func Register(name string, f Factory) {
	factories[name] = f
}

// New builds the recognizer for a provider name.
func New(provider string, settings Settings) (Recognizer, error) {
	f, ok := factories[provider]
	if !ok {
		return nil, fmt.Errorf("%q (valid: local, cloud): %w", provider, ErrUnknownProvider)
	}
	return f(settings)
}
