// Package project defines the subtitle project container and its versioned
// JSON persistence.
package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lgezyxr/subgen/internal/styles"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// Version is the project file format written by Save.
const Version = "0.2"

// compatibleVersions are the formats the loader understands. Anything else
// loads with a warning; fields the loader does not know are dropped.
var compatibleVersions = map[string]bool{"0.1": true, "0.2": true}

// Source provenance values for Metadata.SourceFrom.
const (
	SourceCache       = "cache"
	SourceEmbedded    = "embedded"
	SourceTranscribed = "transcribed"
)

// Metadata records where a project came from and which providers built it.
// Timestamps are ISO-8601.
type Metadata struct {
	VideoPath       string `json:"video_path"`
	SourceLang      string `json:"source_lang"`
	TargetLang      string `json:"target_lang"`
	WhisperProvider string `json:"whisper_provider"`
	LLMProvider     string `json:"llm_provider"`
	LLMModel        string `json:"llm_model"`
	CreatedAt       string `json:"created_at"`
	ModifiedAt      string `json:"modified_at"`
	SourceFrom      string `json:"source_from,omitempty"`
}

// State tracks which pipeline stages have completed.
// IsTranslated implies every segment has a translation; IsProofread
// implies IsTranslated.
type State struct {
	IsTranscribed bool `json:"is_transcribed"`
	IsTranslated  bool `json:"is_translated"`
	IsProofread   bool `json:"is_proofread"`
}

// Project is the top-level container flowing through the pipeline.
type Project struct {
	Segments []subtitle.Segment  `json:"segments"`
	Style    styles.StyleProfile `json:"style"`
	Metadata Metadata            `json:"metadata"`
	State    State               `json:"state"`
}

// projectFile is the on-disk shape with the version envelope.
type projectFile struct {
	Version  string              `json:"version"`
	Segments []subtitle.Segment  `json:"segments"`
	Style    styles.StyleProfile `json:"style"`
	Metadata Metadata            `json:"metadata"`
	State    State               `json:"state"`
}

// New builds an empty project with the default style.
func New() *Project {
	return &Project{Style: styles.Default()}
}

// Save writes the project to path atomically: marshal to a sibling temp
// file, then rename over the destination. ModifiedAt is refreshed and
// CreatedAt backfilled on first save.
func (p *Project) Save(path string) error {
	now := time.Now().Format(time.RFC3339)
	p.Metadata.ModifiedAt = now
	if p.Metadata.CreatedAt == "" {
		p.Metadata.CreatedAt = now
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	data, err := json.MarshalIndent(projectFile{
		Version:  Version,
		Segments: p.Segments,
		Style:    p.Style,
		Metadata: p.Metadata,
		State:    p.State,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".subgen-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing project: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing project file: %w", err)
	}
	return nil
}

// Load reads a project file. Unknown versions load best-effort with a
// warning rather than failing, so newer files degrade instead of blocking.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf projectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("decoding project %s: %w", filepath.Base(path), err)
	}
	if !compatibleVersions[pf.Version] {
		slog.Warn("project file version may be incompatible",
			"version", pf.Version, "supported", "0.1, 0.2")
	}
	p := &Project{
		Segments: pf.Segments,
		Style:    pf.Style,
		Metadata: pf.Metadata,
		State:    pf.State,
	}
	if p.Style.Name == "" {
		p.Style = styles.Default()
	}
	return p, nil
}
