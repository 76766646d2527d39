// Package config loads and validates the layered SubGen configuration:
// built-in defaults, an optional YAML file, and per-run overrides.
package config

import (
	"os"
	"path/filepath"
)

// WhisperConfig selects and tunes the speech recognizer.
type WhisperConfig struct {
	Provider       string `yaml:"provider"`    // local | cloud
	LocalModel     string `yaml:"local_model"` // whisper.cpp model name, e.g. large-v3
	CloudModel     string `yaml:"cloud_model"`
	Device         string `yaml:"device"`
	SourceLanguage string `yaml:"source_language"` // auto = let the recognizer detect
	Threads        int    `yaml:"threads"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// TranslationConfig selects the LLM provider used for translation and
// proofreading. APIKey here is the lowest-priority credential source.
type TranslationConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	OllamaHost string `yaml:"ollama_host"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// OutputConfig controls subtitle output.
type OutputConfig struct {
	Format          string `yaml:"format"` // srt | vtt | ass
	SourceLanguage  string `yaml:"source_language"`
	TargetLanguage  string `yaml:"target_language"`
	Bilingual       bool   `yaml:"bilingual"`
	MaxCharsPerLine int    `yaml:"max_chars_per_line"`
	EmbedInVideo    bool   `yaml:"embed_in_video"`
}

// StylesConfig names a preset and optional field overrides applied on top.
type StylesConfig struct {
	Preset         string `yaml:"preset"`
	PrimaryFont    string `yaml:"primary_font"`
	PrimarySize    int    `yaml:"primary_size"`
	PrimaryColor   string `yaml:"primary_color"`
	SecondaryFont  string `yaml:"secondary_font"`
	SecondarySize  int    `yaml:"secondary_size"`
	SecondaryColor string `yaml:"secondary_color"`
}

// AdvancedConfig tunes pipeline internals. Zero values fall back to the
// documented defaults at load time.
type AdvancedConfig struct {
	TranslationBatchSize   int     `yaml:"translation_batch_size"`
	TranslationContextSize int     `yaml:"translation_context_size"`
	TranslationTailRetries int     `yaml:"translation_tail_retries"`
	MaxGapSec              float64 `yaml:"max_gap_sec"`
	MaxGroupSize           int     `yaml:"max_group_size"`
	MaxGroupChars          int     `yaml:"max_group_chars"`
	ProofreadBatchSize     int     `yaml:"proofread_batch_size"`
	ProofreadContextChars  int     `yaml:"proofread_context_chars"`
	LLMParallelism         int     `yaml:"llm_parallelism"`      // 0 = min(4, cores)
	DownloadParallelism    int     `yaml:"download_parallelism"` // 0 = 2
	ExtractTimeoutSec      int     `yaml:"extract_timeout_sec"`
	LLMTimeoutSec          int     `yaml:"llm_timeout_sec"`
	TempDir                string  `yaml:"temp_dir"`
	KeepTempFiles          bool    `yaml:"keep_temp_files"`
}

// Config is the full configuration tree. It is a plain value with no
// reference fields, so an assignment is a deep copy; overrides must build
// a new value rather than mutate a shared one.
type Config struct {
	Whisper     WhisperConfig     `yaml:"whisper"`
	Translation TranslationConfig `yaml:"translation"`
	Output      OutputConfig      `yaml:"output"`
	Styles      StylesConfig      `yaml:"styles"`
	Advanced    AdvancedConfig    `yaml:"advanced"`
}

// Clone returns an independent copy.
func (c Config) Clone() Config {
	return c
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Whisper: WhisperConfig{
			Provider:       "local",
			LocalModel:     "large-v3",
			CloudModel:     "whisper-1",
			Device:         "auto",
			SourceLanguage: "auto",
			TimeoutSec:     900,
		},
		Translation: TranslationConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			OllamaHost: "http://localhost:11434",
			TimeoutSec: 120,
		},
		Output: OutputConfig{
			Format:          "srt",
			SourceLanguage:  "auto",
			TargetLanguage:  "zh",
			MaxCharsPerLine: 42,
		},
		Styles: StylesConfig{
			Preset: "default",
		},
		Advanced: AdvancedConfig{
			TranslationBatchSize:   20,
			TranslationContextSize: 5,
			TranslationTailRetries: 2,
			MaxGapSec:              1.5,
			MaxGroupSize:           10,
			MaxGroupChars:          400,
			ProofreadBatchSize:     50,
			ProofreadContextChars:  15000,
			DownloadParallelism:    2,
			ExtractTimeoutSec:      300,
			LLMTimeoutSec:          120,
		},
	}
}

// DataRoot returns the user data directory (~/.subgen), honoring the
// SUBGEN_HOME override used by tests and containerized runs.
func DataRoot() string {
	if root := os.Getenv("SUBGEN_HOME"); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".subgen"
	}
	return filepath.Join(home, ".subgen")
}
