package component

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Install downloads, verifies, and installs a component for the current
// platform. The integrity check is mandatory: an empty registry checksum
// aborts before anything touches the disk.
func (m *Manager) Install(ctx context.Context, id string, onProgress Progress) (string, error) {
	comp, ok := m.registry.Components[id]
	if !ok {
		return "", fmt.Errorf("%s: %w", id, ErrUnknown)
	}
	url, expectedSHA, ok := comp.urlFor(m.platform)
	if !ok {
		return "", fmt.Errorf("%s on %s: %w", id, m.platform, ErrUnavailable)
	}
	if expectedSHA == "" {
		return "", fmt.Errorf(
			"registry has no SHA-256 for %s on %s, refusing to install unverified bytes: %w",
			id, m.platform, ErrMissingIntegrity)
	}

	installPath := filepath.Join(m.baseDir, filepath.FromSlash(comp.InstallPath))
	if err := m.assertInsideRoot(installPath); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(m.baseDir, "subgen-download-*")
	if err != nil {
		return "", fmt.Errorf("creating download temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := m.download(ctx, url, tmpName, onProgress); err != nil {
		return "", err
	}
	if err := verifyChecksum(tmpName, expectedSHA); err != nil {
		return "", fmt.Errorf("verifying %s: %w", id, err)
	}

	resultPath := installPath
	if isArchiveURL(url) {
		if err := os.MkdirAll(installPath, 0o755); err != nil {
			return "", fmt.Errorf("creating install directory: %w", err)
		}
		if err := extractArchive(tmpName, url, installPath); err != nil {
			return "", err
		}
		if comp.Executable != "" {
			markExecutables(installPath, comp.Executable)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(installPath), 0o755); err != nil {
			return "", fmt.Errorf("creating install directory: %w", err)
		}
		if err := os.Rename(tmpName, installPath); err != nil {
			return "", fmt.Errorf("moving into place: %w", err)
		}
	}

	unlock, err := m.lockState()
	if err != nil {
		return "", err
	}
	defer unlock()
	state, err := m.loadInstalled()
	if err != nil {
		return "", err
	}
	state.Components[id] = Installed{
		Version:     comp.Version,
		Path:        resultPath,
		InstalledAt: time.Now().Format(time.RFC3339),
		SizeBytes:   treeSize(resultPath),
	}
	if err := m.saveInstalled(state); err != nil {
		return "", err
	}
	slog.Info("component installed", "id", id, "version", comp.Version)
	return resultPath, nil
}

// InstallModel installs a Whisper model by short name (tiny, base, small,
// medium, large-v3).
func (m *Manager) InstallModel(ctx context.Context, modelName string, onProgress Progress) (string, error) {
	return m.Install(ctx, "model-whisper-"+modelName, onProgress)
}

// Update reinstalls a component when the registry carries a newer version.
// Returns the installed path and whether anything changed.
func (m *Manager) Update(ctx context.Context, id string, onProgress Progress) (string, bool, error) {
	if !m.NeedsUpdate(id) {
		path, err := m.GetPath(id)
		return path, false, err
	}
	if _, err := m.Uninstall(id); err != nil {
		return "", false, err
	}
	path, err := m.Install(ctx, id, onProgress)
	return path, err == nil, err
}

func isArchiveURL(url string) bool {
	for _, suffix := range []string{".zip", ".tar.gz", ".tgz", ".tar.xz"} {
		if strings.HasSuffix(url, suffix) {
			return true
		}
	}
	return false
}

// markExecutables sets the execute bits on extracted binaries whose name
// starts with the component's executable name.
func markExecutables(root, executable string) {
	filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil || !fi.Mode().IsRegular() {
			return nil
		}
		name := strings.TrimSuffix(fi.Name(), ".exe")
		if strings.HasPrefix(name, executable) {
			os.Chmod(path, fi.Mode()|0o755)
		}
		return nil
	})
}
