// Package engine orchestrates the subtitle pipeline: obtain segments from
// cache, embedded tracks, or transcription, then translate, proofread, and
// export. It does no terminal I/O; progress flows through a callback.
package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lgezyxr/subgen/internal/audio"
	"github.com/lgezyxr/subgen/internal/component"
	"github.com/lgezyxr/subgen/internal/config"
	"github.com/lgezyxr/subgen/internal/llm"
	"github.com/lgezyxr/subgen/internal/transcribe"
	"github.com/lgezyxr/subgen/internal/translate"
)

// Stage names one pipeline phase for progress reporting.
type Stage string

const (
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageTranslating  Stage = "translating"
	StageProofreading Stage = "proofreading"
	StageExporting    Stage = "exporting"
)

// ProgressFunc receives progress updates. Within one stage current never
// decreases between calls.
type ProgressFunc func(stage Stage, current, total int)

// Options tunes one Run invocation. Zero values mean "use the config".
type Options struct {
	// SourceLang, when set, overrides the configured source language. A
	// language recorded in the cache still wins on a hit, since it
	// describes what the cached segments actually contain.
	SourceLang string
	TargetLang string

	NoTranslate bool
	// SentenceAware groups segments into sentences before translation.
	// Off, every segment is translated on its own.
	SentenceAware bool
	Proofread     bool
	// ProofreadOnly skips transcription and translation and proofreads an
	// existing cached translation or subtitle file.
	ProofreadOnly   bool
	ForceTranscribe bool
}

// Engine runs the pipeline against one configuration. Construct with New;
// the zero value is not usable.
type Engine struct {
	cfg        config.Config
	onProgress ProgressFunc

	// Injected collaborators; nil fields are built on first use from the
	// configuration and the component manager.
	recognizer transcribe.Recognizer
	client     llm.Client
	tools      *audio.Tools
	components *component.Manager

	progressMu sync.Mutex
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithProgress installs the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// WithRecognizer injects a speech recognizer, bypassing component lookup.
func WithRecognizer(r transcribe.Recognizer) Option {
	return func(e *Engine) { e.recognizer = r }
}

// WithLLM injects the chat client used for translation and proofreading.
func WithLLM(c llm.Client) Option {
	return func(e *Engine) { e.client = c }
}

// WithTools injects resolved ffmpeg/ffprobe paths.
func WithTools(t audio.Tools) Option {
	return func(e *Engine) { e.tools = &t }
}

// New builds an Engine over a copy of cfg, so later config mutations by the
// caller never leak into a running pipeline.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg.Clone()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// emit forwards progress to the callback. Serialized so callers may render
// without their own locking.
func (e *Engine) emit(stage Stage, current, total int) {
	if e.onProgress == nil {
		return
	}
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.onProgress(stage, current, total)
}

func (e *Engine) manager() (*component.Manager, error) {
	if e.components == nil {
		m, err := component.New(config.DataRoot())
		if err != nil {
			return nil, err
		}
		e.components = m
	}
	return e.components, nil
}

// audioTools resolves ffmpeg and ffprobe once, preferring managed installs
// and falling back to PATH.
func (e *Engine) audioTools() (audio.Tools, error) {
	if e.tools != nil {
		return *e.tools, nil
	}
	m, err := e.manager()
	if err != nil {
		return audio.Tools{}, err
	}
	t := audio.Tools{}
	if path, ok := m.FindFFmpeg(); ok {
		t.FFmpeg = path
	}
	if path, ok := m.FindFFprobe(); ok {
		t.FFprobe = path
	}
	if sec := e.cfg.Advanced.ExtractTimeoutSec; sec > 0 {
		t.Timeout = time.Duration(sec) * time.Second
	}
	e.tools = &t
	return t, nil
}

// speechRecognizer builds the configured recognizer, resolving the engine
// binary and model through the component manager for the local provider and
// the OpenAI credential for the cloud one.
func (e *Engine) speechRecognizer(cfg config.Config) (transcribe.Recognizer, error) {
	if e.recognizer != nil {
		return e.recognizer, nil
	}
	settings := transcribe.Settings{
		Threads:    cfg.Whisper.Threads,
		TimeoutSec: cfg.Whisper.TimeoutSec,
	}
	switch cfg.Whisper.Provider {
	case "cloud":
		key, err := config.ResolveAPIKey("openai", "", cfg)
		if err != nil {
			return nil, err
		}
		settings.Model = cfg.Whisper.CloudModel
		settings.APIKey = key
	default:
		m, err := e.manager()
		if err != nil {
			return nil, err
		}
		settings.Model = cfg.Whisper.LocalModel
		if path, ok := m.FindWhisperEngine(); ok {
			settings.EnginePath = path
		}
		if path, ok := m.FindWhisperModel(cfg.Whisper.LocalModel); ok {
			settings.ModelPath = path
		}
	}
	rec, err := transcribe.New(cfg.Whisper.Provider, settings)
	if err != nil {
		return nil, err
	}
	e.recognizer = rec
	return rec, nil
}

// llmClient builds the configured chat client. Ollama needs no credential;
// every other provider resolves one through the credential chain.
func (e *Engine) llmClient(cfg config.Config) (llm.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	provider := cfg.Translation.Provider
	settings := llm.Settings{
		Model:      cfg.Translation.Model,
		BaseURL:    cfg.Translation.BaseURL,
		OllamaHost: cfg.Translation.OllamaHost,
		TimeoutSec: cfg.Translation.TimeoutSec,
	}
	if provider != "ollama" {
		key, err := config.ResolveAPIKey(provider, "", cfg)
		if err != nil {
			return nil, err
		}
		settings.APIKey = key
	}
	client, err := llm.New(provider, settings)
	if err != nil {
		return nil, err
	}
	e.client = client
	return client, nil
}

func (e *Engine) translator(cfg config.Config, opts Options) (*translate.Translator, error) {
	client, err := e.llmClient(cfg)
	if err != nil {
		return nil, err
	}
	adv := cfg.Advanced
	tc := translate.Config{
		SourceLang:      cfg.Output.SourceLanguage,
		TargetLang:      cfg.Output.TargetLanguage,
		MaxCharsPerLine: cfg.Output.MaxCharsPerLine,
		BatchSize:       adv.TranslationBatchSize,
		ContextGroups:   adv.TranslationContextSize,
		TailRetries:     adv.TranslationTailRetries,
		Grouping: translate.Grouping{
			MaxGapSec:     adv.MaxGapSec,
			MaxGroupSize:  adv.MaxGroupSize,
			MaxGroupChars: adv.MaxGroupChars,
		},
		Parallelism: adv.LLMParallelism,
		RulesDir:    filepath.Join(config.DataRoot(), "rules"),
	}
	if !opts.SentenceAware {
		// One segment per group keeps timings untouched.
		tc.Grouping.MaxGroupSize = 1
	}
	return translate.New(client, tc)
}

func (e *Engine) proofreader(cfg config.Config) (*translate.Proofreader, error) {
	client, err := e.llmClient(cfg)
	if err != nil {
		return nil, err
	}
	return translate.NewProofreader(client, translate.ProofreadConfig{
		TargetLang:   cfg.Output.TargetLanguage,
		BatchSize:    cfg.Advanced.ProofreadBatchSize,
		ContextChars: cfg.Advanced.ProofreadContextChars,
	}), nil
}

// tempDir returns the scratch directory for extracted audio and subtitle
// files.
func (e *Engine) tempDir(cfg config.Config) string {
	if cfg.Advanced.TempDir != "" {
		return cfg.Advanced.TempDir
	}
	return filepath.Join(os.TempDir(), "subgen")
}

// cleanupList collects temp files removed when a run ends, unless the
// configuration asks to keep them.
type cleanupList struct {
	keep  bool
	paths []string
}

func (c *cleanupList) add(path string) {
	if path != "" {
		c.paths = append(c.paths, path)
	}
}

func (c *cleanupList) run() {
	if c.keep {
		return
	}
	for _, p := range c.paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Debug("temp file not removed", "path", p, "error", err)
		}
	}
}
