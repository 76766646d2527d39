// Package component downloads, verifies, installs, and locates the native
// binaries and model files SubGen depends on: whisper.cpp builds, ggml
// models, and ffmpeg.
package component

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Installed is one record in installed.json.
type Installed struct {
	ID          string `json:"-"`
	Version     string `json:"version"`
	Path        string `json:"path"`
	InstalledAt string `json:"installed_at"`
	SizeBytes   int64  `json:"size_bytes"`
}

type installedState struct {
	Components map[string]Installed `json:"components"`
}

// Manager owns the component registry and the installed state under the
// user data root.
type Manager struct {
	baseDir  string
	platform string
	registry Registry
	client   *http.Client
}

// New builds a Manager rooted at baseDir (~/.subgen in production) after
// detecting the platform and loading the registry.
func New(baseDir string) (*Manager, error) {
	platform, err := DetectPlatform()
	if err != nil {
		return nil, err
	}
	return newForPlatform(baseDir, platform)
}

func newForPlatform(baseDir, platform string) (*Manager, error) {
	for _, dir := range []string{
		filepath.Join(baseDir, "bin"),
		filepath.Join(baseDir, "models", "whisper"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &Manager{
		baseDir:  baseDir,
		platform: platform,
		registry: loadRegistry(filepath.Join(baseDir, "components.json")),
		client:   &http.Client{Timeout: 0}, // streaming downloads manage their own deadlines
	}, nil
}

// Platform returns the detected canonical platform key.
func (m *Manager) Platform() string { return m.platform }

// ListAvailable returns registry components usable on this platform,
// sorted by id.
func (m *Manager) ListAvailable() []Component {
	var out []Component
	for id, c := range m.registry.Components {
		if _, _, ok := c.urlFor(m.platform); ok {
			c.ID = id
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListInstalled returns the installed records, sorted by id.
func (m *Manager) ListInstalled() ([]Installed, error) {
	state, err := m.loadInstalled()
	if err != nil {
		return nil, err
	}
	var out []Installed
	for id, rec := range state.Components {
		rec.ID = id
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// IsInstalled reports whether a component is recorded and still on disk.
func (m *Manager) IsInstalled(id string) bool {
	state, err := m.loadInstalled()
	if err != nil {
		return false
	}
	rec, ok := state.Components[id]
	if !ok {
		return false
	}
	_, err = os.Stat(rec.Path)
	return err == nil
}

// GetPath returns the installed path for a component.
func (m *Manager) GetPath(id string) (string, error) {
	state, err := m.loadInstalled()
	if err != nil {
		return "", err
	}
	rec, ok := state.Components[id]
	if !ok {
		return "", fmt.Errorf("%s (run 'subgen install %s'): %w", id, id, ErrNotInstalled)
	}
	if _, err := os.Stat(rec.Path); err != nil {
		return "", fmt.Errorf("%s recorded at %s but missing on disk (run 'subgen install %s'): %w",
			id, rec.Path, id, ErrNotInstalled)
	}
	return rec.Path, nil
}

// NeedsUpdate reports whether an installed component's version differs
// from the registry.
func (m *Manager) NeedsUpdate(id string) bool {
	state, err := m.loadInstalled()
	if err != nil {
		return false
	}
	rec, ok := state.Components[id]
	if !ok {
		return false
	}
	reg, ok := m.registry.Components[id]
	return ok && rec.Version != reg.Version
}

// Uninstall removes an installed component after asserting its recorded
// path still resolves inside the data root. Reports whether anything was
// removed.
func (m *Manager) Uninstall(id string) (bool, error) {
	unlock, err := m.lockState()
	if err != nil {
		return false, err
	}
	defer unlock()

	state, err := m.loadInstalled()
	if err != nil {
		return false, err
	}
	rec, ok := state.Components[id]
	if !ok {
		return false, nil
	}

	if err := m.assertInsideRoot(rec.Path); err != nil {
		return false, err
	}
	if err := os.RemoveAll(rec.Path); err != nil {
		return false, fmt.Errorf("removing %s: %w", rec.Path, err)
	}

	delete(state.Components, id)
	if err := m.saveInstalled(state); err != nil {
		return false, err
	}
	return true, nil
}

// assertInsideRoot rejects recorded paths that resolve outside the data
// root; a corrupt installed.json must never delete arbitrary files.
func (m *Manager) assertInsideRoot(path string) error {
	root, err := filepath.Abs(m.baseDir)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s resolves outside %s: %w", path, root, ErrUnsafePath)
	}
	return nil
}

// DiskUsage reports bytes on disk per installed component.
func (m *Manager) DiskUsage() (map[string]int64, error) {
	state, err := m.loadInstalled()
	if err != nil {
		return nil, err
	}
	usage := make(map[string]int64, len(state.Components))
	for id, rec := range state.Components {
		usage[id] = treeSize(rec.Path)
	}
	return usage, nil
}

func treeSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err == nil && fi.Mode().IsRegular() {
			total += fi.Size()
		}
		return nil
	})
	return total
}

func (m *Manager) installedPath() string {
	return filepath.Join(m.baseDir, "installed.json")
}

func (m *Manager) loadInstalled() (installedState, error) {
	state := installedState{Components: map[string]Installed{}}
	data, err := os.ReadFile(m.installedPath())
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("reading installed.json: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("installed.json is corrupt: %w", err)
	}
	if state.Components == nil {
		state.Components = map[string]Installed{}
	}
	return state, nil
}

// saveInstalled writes installed.json atomically.
func (m *Manager) saveInstalled(state installedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(m.baseDir, ".installed-*.tmp")
	if err != nil {
		return fmt.Errorf("writing installed.json: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing installed.json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing installed.json: %w", err)
	}
	if err := os.Rename(tmpName, m.installedPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing installed.json: %w", err)
	}
	return nil
}

// lockState takes an exclusive lock on the installed state via an O_EXCL
// lock file. Locks older than staleLockAge are presumed abandoned.
const staleLockAge = 10 * time.Minute

func (m *Manager) lockState() (func(), error) {
	lockPath := m.installedPath() + ".lock"
	deadline := time.Now().Add(30 * time.Second)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquiring state lock: %w", err)
		}
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(lockPath)
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", lockPath, ErrLocked)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
