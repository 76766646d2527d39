package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgezyxr/subgen/internal/audio"
	"github.com/lgezyxr/subgen/internal/config"
	"github.com/lgezyxr/subgen/internal/engine"
	"github.com/lgezyxr/subgen/internal/project"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

type runFlags struct {
	configPath string
	debug      bool

	to   string
	from string

	sentenceAware   bool
	proofread       bool
	proofreadOnly   bool
	noTranslate     bool
	bilingual       bool
	forceTranscribe bool

	output string
	format string
	embed  string

	saveProject string
	loadProject string

	stylePreset    string
	primaryFont    string
	primaryColor   string
	secondaryFont  string
	secondaryColor string
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Transcribe, translate, and export subtitles for a video",
		Long: `Run the full pipeline on a video or audio file: extract audio, transcribe
it, translate the segments, and write a subtitle file next to the input.

Prior transcriptions are cached next to the video and reused on reruns.
Text subtitle tracks already embedded in the container are used instead of
transcribing when they match the requested languages.`,
		Example: `  subgen run movie.mkv --to zh -s
  subgen run lecture.mp4 --from en --to ja -s -p
  subgen run movie.mkv --proofread-only
  subgen run movie.mkv --to zh --bilingual --embed soft
  subgen run movie.mkv --no-translate -o transcript.srt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Config file path (default: ./config.yaml, then ~/.subgen/config.yaml)")
	fl.BoolVar(&f.debug, "debug", false, "Verbose logging to stderr")
	fl.StringVar(&f.to, "to", "", "Target language (default from config, zh)")
	fl.StringVar(&f.from, "from", "", "Source language (default: auto-detect)")
	fl.BoolVarP(&f.sentenceAware, "sentence-aware", "s", false, "Group segments into sentences before translating")
	fl.BoolVarP(&f.proofread, "proofread", "p", false, "Run a proofreading pass after translation")
	fl.BoolVar(&f.proofreadOnly, "proofread-only", false, "Only proofread an existing translation")
	fl.BoolVar(&f.noTranslate, "no-translate", false, "Transcribe only, keep the source language")
	fl.BoolVar(&f.bilingual, "bilingual", false, "Show source and translation together")
	fl.BoolVar(&f.forceTranscribe, "force-transcribe", false, "Ignore the cache and embedded subtitle tracks")
	fl.StringVarP(&f.output, "output", "o", "", "Subtitle output path (default: <video>_<lang>.<format>)")
	fl.StringVar(&f.format, "format", "", "Subtitle format: srt, vtt, ass (default from config)")
	fl.StringVar(&f.embed, "embed", "", "Embed subtitles into a video copy: soft (mux) or hard (burn-in)")
	fl.StringVar(&f.saveProject, "save-project", "", "Write the project state to this path")
	fl.StringVar(&f.loadProject, "load-project", "", "Resume from a saved project instead of running the pipeline")
	fl.StringVar(&f.stylePreset, "style-preset", "", "Style preset: default, netflix, fansub, minimal")
	fl.StringVar(&f.primaryFont, "primary-font", "", "Primary subtitle font")
	fl.StringVar(&f.primaryColor, "primary-color", "", "Primary subtitle color (#RRGGBB)")
	fl.StringVar(&f.secondaryFont, "secondary-font", "", "Secondary subtitle font")
	fl.StringVar(&f.secondaryColor, "secondary-color", "", "Secondary subtitle color (#RRGGBB)")

	return cmd
}

func runPipeline(ctx context.Context, input string, f runFlags) error {
	setupLogging(f.debug)

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	applyRunFlags(&cfg, f)

	format := subtitle.Format(cfg.Output.Format)
	switch format {
	case subtitle.FormatSRT, subtitle.FormatVTT, subtitle.FormatASS:
	default:
		return fmt.Errorf("format %q (valid: srt, vtt, ass): %w", format, engine.ErrBadInput)
	}
	if f.embed != "" && f.embed != string(audio.EmbedSoft) && f.embed != string(audio.EmbedHard) {
		return fmt.Errorf("embed mode %q (valid: soft, hard): %w", f.embed, engine.ErrBadInput)
	}

	eng := engine.New(cfg, engine.WithProgress(progressPrinter(os.Stderr)))

	var p *project.Project
	if f.loadProject != "" {
		p, err = project.Load(f.loadProject)
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}
		if (f.proofread || f.proofreadOnly) && !p.State.IsProofread {
			if err := eng.Proofread(ctx, p); err != nil {
				return err
			}
		}
	} else {
		p, err = eng.Run(ctx, input, engine.Options{
			SourceLang:      f.from,
			TargetLang:      f.to,
			NoTranslate:     f.noTranslate,
			SentenceAware:   f.sentenceAware,
			Proofread:       f.proofread,
			ProofreadOnly:   f.proofreadOnly,
			ForceTranscribe: f.forceTranscribe,
		})
		if err != nil {
			// Keep whatever the run produced before failing.
			if p != nil && f.saveProject != "" {
				if saveErr := p.Save(f.saveProject); saveErr == nil {
					fmt.Fprintf(os.Stderr, "\nPartial project saved to %s\n", f.saveProject)
				}
			}
			return err
		}
	}
	fmt.Fprintln(os.Stderr)

	if f.saveProject != "" {
		if err := p.Save(f.saveProject); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Project saved to %s\n", f.saveProject)
	}

	outPath := f.output
	if outPath == "" {
		outPath = defaultOutputPath(input, p.Metadata.TargetLang, format, f.proofreadOnly)
	}
	if err := eng.Export(p, outPath, format, cfg.Output.Bilingual); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nSubtitles written to %s\n", outPath)

	if f.embed != "" || cfg.Output.EmbedInVideo {
		mode := audio.EmbedMode(f.embed)
		if mode == "" {
			mode = audio.EmbedSoft
		}
		videoOut := embeddedOutputPath(input, mode)
		if err := eng.ExportVideo(ctx, p, input, videoOut, mode, cfg.Output.Bilingual); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nVideo with subtitles written to %s\n", videoOut)
	}
	return nil
}

// applyRunFlags layers CLI flags over the loaded configuration.
func applyRunFlags(cfg *config.Config, f runFlags) {
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.bilingual {
		cfg.Output.Bilingual = true
	}
	if f.stylePreset != "" {
		cfg.Styles.Preset = f.stylePreset
	}
	if f.primaryFont != "" {
		cfg.Styles.PrimaryFont = f.primaryFont
	}
	if f.primaryColor != "" {
		cfg.Styles.PrimaryColor = f.primaryColor
	}
	if f.secondaryFont != "" {
		cfg.Styles.SecondaryFont = f.secondaryFont
	}
	if f.secondaryColor != "" {
		cfg.Styles.SecondaryColor = f.secondaryColor
	}
}

// defaultOutputPath names the subtitle file written next to the input.
// Proofread-only runs never overwrite the file they read from.
func defaultOutputPath(input, langCode string, format subtitle.Format, proofreadOnly bool) string {
	path := audio.SubtitlePathFor(input, langCode, string(format))
	if proofreadOnly {
		ext := "." + string(format)
		path = strings.TrimSuffix(path, ext) + ".proofread" + ext
	}
	return path
}

func embeddedOutputPath(input string, mode audio.EmbedMode) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	if mode == audio.EmbedHard {
		return stem + "_subtitled" + ext
	}
	// Soft muxing of SRT streams needs a container that accepts them.
	if strings.EqualFold(ext, ".mp4") {
		return stem + "_subtitled.mp4"
	}
	return stem + "_subtitled.mkv"
}
