// Package cache persists transcription results next to the source video so
// translation-only reruns skip the recognizer entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lgezyxr/subgen/internal/subtitle"
)

// Version is the cache schema written by Save. Files with any other
// version are rejected rather than misread.
const Version = 1

// Suffix is appended to the full video filename, extension included.
const Suffix = ".subgen-cache.json"

// Entry is the on-disk cache document.
type Entry struct {
	Version         int                `json:"version"`
	SourceFile      string             `json:"source_file"`
	FileSize        int64              `json:"file_size"`
	FileMtime       float64            `json:"file_mtime"`
	CreatedAt       float64            `json:"created_at"`
	Fingerprint     string             `json:"fingerprint"`
	WhisperProvider string             `json:"whisper_provider"`
	WhisperModel    string             `json:"whisper_model"`
	SourceLang      string             `json:"source_lang"`
	SegmentCount    int                `json:"segment_count"`
	Segments        []subtitle.Segment `json:"segments"`
}

// Path returns the cache file path for a video.
func Path(videoPath string) string {
	return videoPath + Suffix
}

// Fingerprint derives the cache key from the audio content hash and the
// recognizer settings. Any change to either must produce a different key.
func Fingerprint(audioHash, provider, model, language string) string {
	h := sha256.Sum256([]byte(audioHash + "|" + provider + "|" + model + "|" + language))
	return hex.EncodeToString(h[:])
}

// HashFile returns the SHA-256 of a file's content in hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// buildLocks serializes cache writes per fingerprint so at most one build
// runs for a given key at a time.
var buildLocks sync.Map

// Lock acquires the per-fingerprint build lock. The returned func releases it.
func Lock(fingerprint string) func() {
	mu, _ := buildLocks.LoadOrStore(fingerprint, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Save writes a cache entry atomically next to the video.
func Save(videoPath string, segments []subtitle.Segment, fingerprint, provider, model, sourceLang string) error {
	info, err := os.Stat(videoPath)
	if err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}
	entry := Entry{
		Version:         Version,
		SourceFile:      filepath.Base(videoPath),
		FileSize:        info.Size(),
		FileMtime:       float64(info.ModTime().UnixNano()) / 1e9,
		CreatedAt:       float64(time.Now().UnixNano()) / 1e9,
		Fingerprint:     fingerprint,
		WhisperProvider: provider,
		WhisperModel:    model,
		SourceLang:      sourceLang,
		SegmentCount:    len(segments),
		Segments:        segments,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	path := Path(videoPath)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".subgen-cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	slog.Debug("cache saved", "segments", len(segments))
	return nil
}

// Load reads and validates the cache entry for a video. fingerprint may be
// empty to accept any recognizer settings (used by proofread-only mode).
// Returns ErrMiss, ErrIncompatible, ErrStale, or ErrFingerprintMismatch
// as appropriate.
func Load(videoPath, fingerprint string) (*Entry, error) {
	data, err := os.ReadFile(Path(videoPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Debug("cache file unreadable, treating as miss", "error", err)
		return nil, ErrMiss
	}
	if entry.Version != Version {
		return nil, fmt.Errorf("cache version %d, this build supports %d: %w",
			entry.Version, Version, ErrIncompatible)
	}

	info, err := os.Stat(videoPath)
	if err != nil {
		return nil, fmt.Errorf("source file gone: %w", ErrStale)
	}
	if entry.FileSize != info.Size() {
		return nil, fmt.Errorf("source file size changed: %w", ErrStale)
	}
	// Filesystems vary in mtime precision, allow one second.
	mtime := float64(info.ModTime().UnixNano()) / 1e9
	if math.Abs(entry.FileMtime-mtime) > 1.0 {
		return nil, fmt.Errorf("source file mtime changed: %w", ErrStale)
	}

	if fingerprint != "" && entry.Fingerprint != "" && entry.Fingerprint != fingerprint {
		return nil, ErrFingerprintMismatch
	}
	if len(entry.Segments) == 0 {
		return nil, ErrMiss
	}
	return &entry, nil
}

// Invalidate removes the cache entry for a video. Reports whether one existed.
func Invalidate(videoPath string) (bool, error) {
	err := os.Remove(Path(videoPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Info renders a human-readable summary of a cache entry.
func (e *Entry) Info() string {
	age := time.Since(time.Unix(int64(e.CreatedAt), 0))
	var ageStr string
	switch {
	case age < time.Minute:
		ageStr = fmt.Sprintf("%d sec ago", int(age.Seconds()))
	case age < time.Hour:
		ageStr = fmt.Sprintf("%d min ago", int(age.Minutes()))
	case age < 24*time.Hour:
		ageStr = fmt.Sprintf("%d hours ago", int(age.Hours()))
	default:
		ageStr = fmt.Sprintf("%d days ago", int(age.Hours()/24))
	}
	return fmt.Sprintf("Whisper: %s/%s, Language: %s, %d segments (%s)",
		e.WhisperProvider, e.WhisperModel, e.SourceLang, e.SegmentCount, ageStr)
}
