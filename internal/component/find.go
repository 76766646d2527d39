package component

import (
	"os"
	"os/exec"
	"path/filepath"
)

// FindFFmpeg locates an ffmpeg binary: the managed bin directory first
// (including extracted subdirectories), then the system PATH.
func (m *Manager) FindFFmpeg() (string, bool) {
	name := "ffmpeg" + exeSuffix(m.platform)
	binDir := filepath.Join(m.baseDir, "bin")

	if p := filepath.Join(binDir, name); isFile(p) {
		return p, true
	}
	if p := findUnder(binDir, name); p != "" {
		return p, true
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, true
	}
	return "", false
}

// FindFFprobe locates ffprobe next to ffmpeg or on PATH.
func (m *Manager) FindFFprobe() (string, bool) {
	name := "ffprobe" + exeSuffix(m.platform)
	if ffmpeg, ok := m.FindFFmpeg(); ok {
		if p := filepath.Join(filepath.Dir(ffmpeg), name); isFile(p) {
			return p, true
		}
	}
	if p, err := exec.LookPath("ffprobe"); err == nil {
		return p, true
	}
	return "", false
}

// FindWhisperEngine locates the whisper.cpp binary inside the managed
// whisper-cpp install directory. Extraction layouts vary by build, so
// several historical binary names are tried.
func (m *Manager) FindWhisperEngine() (string, bool) {
	suffix := exeSuffix(m.platform)
	whisperDir := filepath.Join(m.baseDir, "bin", "whisper-cpp")

	if _, err := os.Stat(whisperDir); err == nil {
		for _, name := range []string{"whisper-cpp" + suffix, "whisper-cli" + suffix, "main" + suffix, "whisper" + suffix} {
			if p := findUnder(whisperDir, name); p != "" {
				return p, true
			}
		}
	}
	if p := filepath.Join(m.baseDir, "bin", "whisper-cpp"+suffix); isFile(p) {
		return p, true
	}
	return "", false
}

// FindWhisperModel locates a downloaded ggml model by short name.
func (m *Manager) FindWhisperModel(modelName string) (string, bool) {
	p := filepath.Join(m.baseDir, "models", "whisper", "ggml-"+modelName+".bin")
	if isFile(p) {
		return p, true
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// findUnder walks dir looking for a file with the exact name.
func findUnder(dir, name string) string {
	var found string
	filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if fi.Mode().IsRegular() && fi.Name() == name {
			found = path
		}
		return nil
	})
	return found
}
