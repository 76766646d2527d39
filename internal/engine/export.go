package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/lgezyxr/subgen/internal/audio"
	"github.com/lgezyxr/subgen/internal/project"
	"github.com/lgezyxr/subgen/internal/subtitle"
)

// Export writes the project's segments as a subtitle file.
func (e *Engine) Export(p *project.Project, outPath string, format subtitle.Format, bilingual bool) error {
	e.emit(StageExporting, 0, 1)
	if err := subtitle.Write(outPath, format, p.Segments, p.Style, bilingual); err != nil {
		return err
	}
	e.emit(StageExporting, 1, 1)
	return nil
}

// ExportVideo writes a copy of the video with the project's subtitles
// attached, soft-muxed or burned in. The intermediate subtitle file is
// removed on every path.
func (e *Engine) ExportVideo(ctx context.Context, p *project.Project, videoPath, outPath string, mode audio.EmbedMode, bilingual bool) error {
	tools, err := e.audioTools()
	if err != nil {
		return err
	}
	e.emit(StageExporting, 0, 1)

	tmp, err := os.CreateTemp("", "subgen_embed_*.srt")
	if err != nil {
		return fmt.Errorf("subtitle temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := subtitle.Write(tmpPath, subtitle.FormatSRT, p.Segments, p.Style, bilingual); err != nil {
		return err
	}
	if err := tools.EmbedSubtitle(ctx, videoPath, tmpPath, outPath, mode); err != nil {
		return wrapCancel(err)
	}
	e.emit(StageExporting, 1, 1)
	return nil
}
