package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lgezyxr/subgen/internal/audio"
	"github.com/lgezyxr/subgen/internal/cache"
	"github.com/lgezyxr/subgen/internal/config"
	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/project"
	"github.com/lgezyxr/subgen/internal/styles"
	"github.com/lgezyxr/subgen/internal/subtitle"
	"github.com/lgezyxr/subgen/internal/transcribe"
)

// Run executes the full pipeline for one input file and returns the
// resulting project. On a stage failure or cancellation the returned
// project still carries everything completed so far; cancellation errors
// wrap ErrCancelled.
func (e *Engine) Run(ctx context.Context, inputPath string, opts Options) (*project.Project, error) {
	cfg := e.cfg.Clone()
	srcForced := opts.SourceLang != ""
	if srcForced {
		cfg.Whisper.SourceLanguage = opts.SourceLang
		cfg.Output.SourceLanguage = opts.SourceLang
	}
	if opts.TargetLang != "" {
		cfg.Output.TargetLanguage = opts.TargetLang
	}
	if err := normalizeLanguages(&cfg); err != nil {
		return nil, err
	}

	style, err := resolveStyle(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("input file %s: %v: %w", inputPath, err, ErrBadInput)
	}

	if opts.ProofreadOnly {
		return e.runProofreadOnly(ctx, inputPath, cfg, style)
	}

	cleanup := &cleanupList{keep: cfg.Advanced.KeepTempFiles}
	defer cleanup.run()

	segments, sourceFrom, preTranslated, err := e.obtainSegments(ctx, inputPath, &cfg, opts, srcForced, cleanup)
	if err != nil {
		return e.buildProject(segments, cfg, inputPath, style, sourceFrom, false), wrapCancel(err)
	}
	if len(segments) == 0 {
		return e.buildProject(nil, cfg, inputPath, style, sourceFrom, false), nil
	}

	proofread := false
	switch {
	case opts.NoTranslate:
		for i := range segments {
			segments[i].Translated = segments[i].Text
		}
	case preTranslated:
		// Target-language subtitles came straight from the container.
	default:
		total := len(segments)
		e.emit(StageTranslating, 0, total)
		tr, err := e.translator(cfg, opts)
		if err != nil {
			return e.buildProject(segments, cfg, inputPath, style, sourceFrom, false), err
		}
		translated, err := tr.Translate(ctx, segments, func(cur, tot int) {
			e.emit(StageTranslating, cur, tot)
		})
		if err != nil {
			return e.buildProject(segments, cfg, inputPath, style, sourceFrom, false), wrapCancel(err)
		}
		segments = translated
		e.saveCache(inputPath, segments, cfg, "", "")

		if opts.Proofread {
			e.emit(StageProofreading, 0, len(segments))
			pr, err := e.proofreader(cfg)
			if err != nil {
				return e.buildProject(segments, cfg, inputPath, style, sourceFrom, false), err
			}
			polished, err := pr.Proofread(ctx, segments, func(cur, tot int) {
				e.emit(StageProofreading, cur, tot)
			})
			if err != nil {
				return e.buildProject(segments, cfg, inputPath, style, sourceFrom, false), wrapCancel(err)
			}
			segments = polished
			proofread = true
			e.saveCache(inputPath, segments, cfg, "", "")
		}
	}

	return e.buildProject(segments, cfg, inputPath, style, sourceFrom, proofread), nil
}

// Transcribe runs the pipeline without translation.
func (e *Engine) Transcribe(ctx context.Context, inputPath string, opts Options) (*project.Project, error) {
	opts.NoTranslate = true
	return e.Run(ctx, inputPath, opts)
}

// Translate fills in translations on an already transcribed project.
func (e *Engine) Translate(ctx context.Context, p *project.Project, opts Options) error {
	cfg := e.cfg.Clone()
	if p.Metadata.SourceLang != "" {
		cfg.Output.SourceLanguage = p.Metadata.SourceLang
	}
	if p.Metadata.TargetLang != "" {
		cfg.Output.TargetLanguage = p.Metadata.TargetLang
	}
	if err := normalizeLanguages(&cfg); err != nil {
		return err
	}

	e.emit(StageTranslating, 0, len(p.Segments))
	tr, err := e.translator(cfg, opts)
	if err != nil {
		return err
	}
	translated, err := tr.Translate(ctx, p.Segments, func(cur, tot int) {
		e.emit(StageTranslating, cur, tot)
	})
	if err != nil {
		return wrapCancel(err)
	}
	p.Segments = translated
	p.State.IsTranslated = true
	return nil
}

// Proofread runs the proofreading pass over a translated project.
func (e *Engine) Proofread(ctx context.Context, p *project.Project) error {
	cfg := e.cfg.Clone()
	if p.Metadata.TargetLang != "" {
		cfg.Output.TargetLanguage = p.Metadata.TargetLang
	}

	e.emit(StageProofreading, 0, len(p.Segments))
	pr, err := e.proofreader(cfg)
	if err != nil {
		return err
	}
	polished, err := pr.Proofread(ctx, p.Segments, func(cur, tot int) {
		e.emit(StageProofreading, cur, tot)
	})
	if err != nil {
		return wrapCancel(err)
	}
	p.Segments = polished
	p.State.IsProofread = true
	return nil
}

// obtainSegments returns segments from cache, an embedded subtitle track,
// or a fresh transcription. preTranslated reports that the segments are
// already in the target language.
func (e *Engine) obtainSegments(
	ctx context.Context, videoPath string, cfg *config.Config,
	opts Options, srcForced bool, cleanup *cleanupList,
) (segments []subtitle.Segment, sourceFrom string, preTranslated bool, err error) {
	if !opts.ForceTranscribe {
		if segs, ok := e.fromCache(videoPath, cfg); ok {
			return segs, project.SourceCache, false, nil
		}
		if segs, translated, ok := e.fromEmbedded(ctx, videoPath, cfg, srcForced, cleanup); ok {
			return segs, project.SourceEmbedded, translated, nil
		}
	}

	tools, err := e.audioTools()
	if err != nil {
		return nil, project.SourceTranscribed, false, err
	}
	e.emit(StageExtracting, 0, 1)
	audioPath, err := tools.ExtractAudio(ctx, videoPath, e.tempDir(*cfg))
	if err != nil {
		return nil, project.SourceTranscribed, false, err
	}
	cleanup.add(audioPath)
	e.emit(StageExtracting, 1, 1)

	rec, err := e.speechRecognizer(*cfg)
	if err != nil {
		return nil, project.SourceTranscribed, false, err
	}
	e.emit(StageTranscribing, 0, 100)
	result, err := rec.Transcribe(ctx, audioPath, transcribeOptions(*cfg, func(cur, tot int) {
		e.emit(StageTranscribing, cur, tot)
	}))
	if err != nil {
		return nil, project.SourceTranscribed, false, err
	}
	e.emit(StageTranscribing, 100, 100)

	if result.Language != "" && !srcForced {
		cfg.Whisper.SourceLanguage = result.Language
		cfg.Output.SourceLanguage = result.Language
	}
	if len(result.Segments) == 0 {
		return nil, project.SourceTranscribed, false, nil
	}
	e.saveCache(videoPath, result.Segments, *cfg, "", "")
	return result.Segments, project.SourceTranscribed, false, nil
}

// fromCache loads a prior transcription. The source language recorded at
// transcription time describes what the segments actually contain, so it
// wins over any requested one.
func (e *Engine) fromCache(videoPath string, cfg *config.Config) ([]subtitle.Segment, bool) {
	hash, err := cache.HashFile(videoPath)
	if err != nil {
		return nil, false
	}
	provider, model := recognizerIdentity(*cfg)
	entry, err := cache.Load(videoPath, cache.Fingerprint(hash, provider, model, ""))
	if errors.Is(err, cache.ErrFingerprintMismatch) {
		// Entries built from embedded tracks carry their own identity and
		// stay valid under any recognizer settings.
		entry, err = cache.Load(videoPath, cache.Fingerprint(hash, "embedded", "embedded", ""))
	}
	if err != nil {
		slog.Debug("cache not used", "video", filepath.Base(videoPath), "reason", err)
		return nil, false
	}
	if entry.SourceLang != "" && entry.SourceLang != lang.Auto {
		cfg.Whisper.SourceLanguage = entry.SourceLang
		cfg.Output.SourceLanguage = entry.SourceLang
	}
	slog.Debug("cache hit", "video", filepath.Base(videoPath), "segments", len(entry.Segments))
	return entry.Segments, true
}

// fromEmbedded extracts a text subtitle track when the container carries a
// usable one. A target-language track short-circuits translation entirely.
func (e *Engine) fromEmbedded(
	ctx context.Context, videoPath string, cfg *config.Config,
	srcForced bool, cleanup *cleanupList,
) (segments []subtitle.Segment, preTranslated, ok bool) {
	tools, err := e.audioTools()
	if err != nil || tools.FFprobe == "" {
		return nil, false, false
	}
	tracks, err := tools.DetectSubtitleTracks(ctx, videoPath)
	if err != nil || len(tracks) == 0 {
		return nil, false, false
	}

	source := cfg.Output.SourceLanguage
	if source == lang.Auto {
		source = tools.DetectVideoLanguage(ctx, videoPath)
	}
	track, action := audio.FindBestTrack(tracks, source, cfg.Output.TargetLanguage)
	if action == audio.Transcribe {
		return nil, false, false
	}

	extracted := filepath.Join(e.tempDir(*cfg), extractedName(videoPath, track, action, *cfg))
	if err := os.MkdirAll(filepath.Dir(extracted), 0o755); err != nil {
		return nil, false, false
	}
	if err := tools.ExtractSubtitleTrack(ctx, videoPath, track, extracted); err != nil {
		slog.Debug("embedded track not usable", "track", track.StreamIndex, "error", err)
		return nil, false, false
	}
	cleanup.add(extracted)
	segs, err := subtitle.ReadSRT(extracted)
	if err != nil || len(segs) == 0 {
		return nil, false, false
	}

	if action == audio.UseTarget {
		for i := range segs {
			segs[i].Translated = segs[i].Text
		}
		slog.Debug("using embedded target-language track", "track", track.StreamIndex)
		return segs, true, true
	}

	if track.Language != "" && !srcForced {
		cfg.Whisper.SourceLanguage = track.Language
		cfg.Output.SourceLanguage = track.Language
	}
	e.saveCache(videoPath, segs, *cfg, "embedded", "embedded")
	slog.Debug("using embedded source track", "track", track.StreamIndex, "language", track.Language)
	return segs, false, true
}

// runProofreadOnly polishes an existing translation: the cache when it
// holds one, otherwise a subtitle file next to the video.
func (e *Engine) runProofreadOnly(ctx context.Context, inputPath string, cfg config.Config, style styles.StyleProfile) (*project.Project, error) {
	var segments []subtitle.Segment
	if entry, err := cache.Load(inputPath, ""); err == nil && anyTranslated(entry.Segments) {
		segments = entry.Segments
	}
	if segments == nil {
		srtPath := audio.SubtitlePathFor(inputPath, cfg.Output.TargetLanguage, "srt")
		if _, err := os.Stat(srtPath); err != nil {
			srtPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".srt"
		}
		segs, err := subtitle.ReadSRT(srtPath)
		if err != nil {
			return nil, fmt.Errorf("nothing to proofread for %s, expected a cached translation or a subtitle file: %w",
				filepath.Base(inputPath), ErrBadInput)
		}
		// A bare subtitle file is already in the target language.
		for i := range segs {
			if segs[i].Translated == "" {
				segs[i].Translated = segs[i].Text
			}
		}
		segments = segs
	}

	e.emit(StageProofreading, 0, len(segments))
	pr, err := e.proofreader(cfg)
	if err != nil {
		return nil, err
	}
	polished, err := pr.Proofread(ctx, segments, func(cur, tot int) {
		e.emit(StageProofreading, cur, tot)
	})
	if err != nil {
		return e.buildProject(segments, cfg, inputPath, style, "", false), wrapCancel(err)
	}
	return e.buildProject(polished, cfg, inputPath, style, "", true), nil
}

// saveCache persists segments best-effort; a cache failure never fails the
// run. provider/model default to the configured recognizer identity.
func (e *Engine) saveCache(videoPath string, segments []subtitle.Segment, cfg config.Config, provider, model string) {
	hash, err := cache.HashFile(videoPath)
	if err != nil {
		slog.Debug("cache save skipped", "error", err)
		return
	}
	if provider == "" {
		provider, model = recognizerIdentity(cfg)
	}
	fp := cache.Fingerprint(hash, provider, model, "")
	unlock := cache.Lock(fp)
	defer unlock()
	if err := cache.Save(videoPath, segments, fp, provider, model, cfg.Whisper.SourceLanguage); err != nil {
		slog.Debug("cache save failed", "error", err)
	}
}

func (e *Engine) buildProject(
	segments []subtitle.Segment, cfg config.Config, inputPath string,
	style styles.StyleProfile, sourceFrom string, proofread bool,
) *project.Project {
	return &project.Project{
		Segments: segments,
		Style:    style,
		Metadata: project.Metadata{
			VideoPath:       inputPath,
			SourceLang:      cfg.Output.SourceLanguage,
			TargetLang:      cfg.Output.TargetLanguage,
			WhisperProvider: cfg.Whisper.Provider,
			LLMProvider:     cfg.Translation.Provider,
			LLMModel:        cfg.Translation.Model,
			SourceFrom:      sourceFrom,
		},
		State: project.State{
			IsTranscribed: len(segments) > 0,
			IsTranslated:  anyTranslated(segments),
			IsProofread:   proofread,
		},
	}
}

func normalizeLanguages(cfg *config.Config) error {
	target := lang.Normalize(cfg.Output.TargetLanguage)
	if err := lang.Validate(target); err != nil {
		return fmt.Errorf("target language: %w", err)
	}
	cfg.Output.TargetLanguage = target

	source := lang.Normalize(cfg.Output.SourceLanguage)
	if source != lang.Auto && source != "" {
		if err := lang.Validate(source); err != nil {
			return fmt.Errorf("source language: %w", err)
		}
	}
	cfg.Output.SourceLanguage = source
	cfg.Whisper.SourceLanguage = lang.Normalize(cfg.Whisper.SourceLanguage)
	return nil
}

func resolveStyle(cfg config.Config) (styles.StyleProfile, error) {
	s := cfg.Styles
	return styles.Resolve(s.Preset, styles.Override{
		PrimaryFont:    s.PrimaryFont,
		PrimarySize:    s.PrimarySize,
		PrimaryColor:   s.PrimaryColor,
		SecondaryFont:  s.SecondaryFont,
		SecondarySize:  s.SecondarySize,
		SecondaryColor: s.SecondaryColor,
	})
}

func recognizerIdentity(cfg config.Config) (provider, model string) {
	provider = cfg.Whisper.Provider
	if provider == "cloud" {
		return provider, cfg.Whisper.CloudModel
	}
	return provider, cfg.Whisper.LocalModel
}

func transcribeOptions(cfg config.Config, progress func(current, total int)) transcribe.Options {
	return transcribe.Options{
		Language: cfg.Whisper.SourceLanguage,
		Progress: progress,
	}
}

func extractedName(videoPath string, track audio.Track, action audio.TrackAction, cfg config.Config) string {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	if action == audio.UseTarget {
		return fmt.Sprintf("%s_%s_extracted.srt", stem, cfg.Output.TargetLanguage)
	}
	return fmt.Sprintf("%s_embedded_s%d.srt", stem, track.StreamIndex)
}

func anyTranslated(segments []subtitle.Segment) bool {
	for _, s := range segments {
		if s.Translated != "" {
			return true
		}
	}
	return false
}

func wrapCancel(err error) error {
	if err != nil && errors.Is(err, context.Canceled) {
		return fmt.Errorf("%v: %w", err, ErrCancelled)
	}
	return err
}
