package component

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// registryMaxAge is how long a cached components.json stays authoritative
// before the built-in registry replaces it.
const registryMaxAge = 24 * time.Hour

// Component is one registry entry: a downloadable engine, model, or tool.
type Component struct {
	ID          string            `json:"-"`
	Name        string            `json:"name"`
	Type        string            `json:"type"` // engine | model | tool
	Version     string            `json:"version"`
	Description string            `json:"description"`
	SizeBytes   int64             `json:"size_bytes"`
	URLs        map[string]string `json:"urls"`   // platform key or "*"
	SHA256      map[string]string `json:"sha256"` // platform key or "*"
	InstallPath string            `json:"install_path"`
	Executable  string            `json:"executable,omitempty"`
}

// urlFor returns the download URL and expected checksum for a platform.
func (c Component) urlFor(platform string) (url, sha string, ok bool) {
	url, ok = c.URLs[platform]
	if !ok {
		url, ok = c.URLs["*"]
		if !ok {
			return "", "", false
		}
		return url, c.SHA256["*"], true
	}
	sha, shaOK := c.SHA256[platform]
	if !shaOK {
		sha = c.SHA256["*"]
	}
	return url, sha, true
}

// Registry is the component catalog, either the built-in fallback or a
// cached copy fetched by `subgen update`.
type Registry struct {
	Version    string               `json:"version"`
	Updated    string               `json:"updated"`
	CachedAt   float64              `json:"_cached_at,omitempty"`
	Components map[string]Component `json:"components"`
}

// loadRegistry prefers a fresh cached components.json, falling back to the
// built-in registry (and refreshing the cache from it).
func loadRegistry(path string) Registry {
	if data, err := os.ReadFile(path); err == nil {
		var cached Registry
		if err := json.Unmarshal(data, &cached); err == nil {
			age := time.Since(time.Unix(int64(cached.CachedAt), 0))
			if cached.CachedAt > 0 && age < registryMaxAge && len(cached.Components) > 0 {
				return cached
			}
		} else {
			slog.Debug("registry cache unreadable", "error", err)
		}
	}

	reg := builtinRegistry()
	reg.CachedAt = float64(time.Now().Unix())
	if data, err := json.MarshalIndent(reg, "", "  "); err == nil {
		// Best effort: a read-only data root just means no cache.
		_ = os.WriteFile(path, data, 0o644)
	}
	return reg
}

const releaseBase = "https://github.com/lgezyxr/subgen/releases/download/components-v1/"
const whisperModelBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

func builtinRegistry() Registry {
	return Registry{
		Version: "1",
		Updated: "2026-02-26T00:00:00Z",
		Components: map[string]Component{
			"whisper-cpp-cuda": {
				Name:        "whisper.cpp (CUDA)",
				Type:        "engine",
				Version:     "1.7.3",
				Description: "Local speech recognition with NVIDIA GPU acceleration",
				SizeBytes:   15728640,
				URLs: map[string]string{
					PlatformLinuxX64:   releaseBase + "whisper-cpp-cuda-linux-x64.tar.gz",
					PlatformWindowsX64: releaseBase + "whisper-cpp-cuda-windows-x64.zip",
				},
				SHA256:      map[string]string{PlatformLinuxX64: "", PlatformWindowsX64: ""},
				InstallPath: "bin/whisper-cpp",
				Executable:  "whisper-cpp",
			},
			"whisper-cpp-cpu": {
				Name:        "whisper.cpp (CPU)",
				Type:        "engine",
				Version:     "1.7.3",
				Description: "Local speech recognition (CPU only)",
				SizeBytes:   5242880,
				URLs: map[string]string{
					PlatformLinuxX64:   releaseBase + "whisper-cpp-cpu-linux-x64.tar.gz",
					PlatformWindowsX64: releaseBase + "whisper-cpp-cpu-windows-x64.zip",
					PlatformMacX64:     releaseBase + "whisper-cpp-cpu-macos-x64.tar.gz",
					PlatformMacARM64:   releaseBase + "whisper-cpp-cpu-macos-arm64.tar.gz",
				},
				SHA256: map[string]string{
					PlatformLinuxX64: "", PlatformWindowsX64: "",
					PlatformMacX64: "", PlatformMacARM64: "",
				},
				InstallPath: "bin/whisper-cpp",
				Executable:  "whisper-cpp",
			},
			"whisper-cpp-metal": {
				Name:        "whisper.cpp (Metal)",
				Type:        "engine",
				Version:     "1.7.3",
				Description: "Local speech recognition with Apple Metal acceleration",
				SizeBytes:   8388608,
				URLs: map[string]string{
					PlatformMacARM64: releaseBase + "whisper-cpp-metal-macos-arm64.tar.gz",
					PlatformMacX64:   releaseBase + "whisper-cpp-metal-macos-x64.tar.gz",
				},
				SHA256:      map[string]string{PlatformMacARM64: "", PlatformMacX64: ""},
				InstallPath: "bin/whisper-cpp",
				Executable:  "whisper-cpp",
			},
			"model-whisper-tiny": {
				Name:        "Whisper Tiny",
				Type:        "model",
				Version:     "1.0",
				Description: "Smallest model, 75MB, fast but lower quality",
				SizeBytes:   78643200,
				URLs:        map[string]string{"*": whisperModelBase + "ggml-tiny.bin"},
				SHA256:      map[string]string{"*": ""},
				InstallPath: "models/whisper/ggml-tiny.bin",
			},
			"model-whisper-base": {
				Name:        "Whisper Base",
				Type:        "model",
				Version:     "1.0",
				Description: "Base model, 142MB, balanced for quick tasks",
				SizeBytes:   148897792,
				URLs:        map[string]string{"*": whisperModelBase + "ggml-base.bin"},
				SHA256:      map[string]string{"*": ""},
				InstallPath: "models/whisper/ggml-base.bin",
			},
			"model-whisper-small": {
				Name:        "Whisper Small",
				Type:        "model",
				Version:     "1.0",
				Description: "Small model, 466MB, good quality",
				SizeBytes:   488636416,
				URLs:        map[string]string{"*": whisperModelBase + "ggml-small.bin"},
				SHA256:      map[string]string{"*": ""},
				InstallPath: "models/whisper/ggml-small.bin",
			},
			"model-whisper-medium": {
				Name:        "Whisper Medium",
				Type:        "model",
				Version:     "1.0",
				Description: "Medium model, 1.5GB, great quality",
				SizeBytes:   1610612736,
				URLs:        map[string]string{"*": whisperModelBase + "ggml-medium.bin"},
				SHA256:      map[string]string{"*": ""},
				InstallPath: "models/whisper/ggml-medium.bin",
			},
			"model-whisper-large-v3": {
				Name:        "Whisper Large V3",
				Type:        "model",
				Version:     "1.0",
				Description: "Best quality, 3.1GB, requires >=8GB VRAM",
				SizeBytes:   3326234624,
				URLs:        map[string]string{"*": whisperModelBase + "ggml-large-v3.bin"},
				SHA256:      map[string]string{"*": ""},
				InstallPath: "models/whisper/ggml-large-v3.bin",
			},
			"ffmpeg": {
				Name:        "FFmpeg",
				Type:        "tool",
				Version:     "7.1",
				Description: "Audio/video processing (required for video input)",
				SizeBytes:   83886080,
				URLs: map[string]string{
					PlatformLinuxX64:   "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-linux64-gpl.tar.gz",
					PlatformWindowsX64: "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-win64-gpl.zip",
					PlatformMacARM64:   "https://evermeet.cx/ffmpeg/getrelease/ffmpeg/zip",
					PlatformMacX64:     "https://evermeet.cx/ffmpeg/getrelease/ffmpeg/zip",
				},
				SHA256: map[string]string{
					PlatformLinuxX64: "", PlatformWindowsX64: "",
					PlatformMacARM64: "", PlatformMacX64: "",
				},
				InstallPath: "bin",
				Executable:  "ffmpeg",
			},
		},
	}
}
