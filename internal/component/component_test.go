package component_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lgezyxr/subgen/internal/component"
)

func TestDetectPlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos, goarch, want string
	}{
		{"windows", "amd64", "windows-x64"},
		{"linux", "amd64", "linux-x64"},
		{"linux", "arm64", "linux-arm64"},
		{"darwin", "amd64", "macos-x64"},
		{"darwin", "arm64", "macos-arm64"},
	}
	for _, tt := range tests {
		got, err := component.DetectPlatformFor(tt.goos, tt.goarch)
		if err != nil || got != tt.want {
			t.Errorf("detectPlatform(%s, %s) = %q, %v; want %q", tt.goos, tt.goarch, got, err, tt.want)
		}
	}

	for _, pair := range [][2]string{{"linux", "riscv64"}, {"windows", "arm64"}, {"plan9", "amd64"}} {
		if _, err := component.DetectPlatformFor(pair[0], pair[1]); !errors.Is(err, component.ErrUnsupportedPlatform) {
			t.Errorf("detectPlatform(%s, %s) = %v, want ErrUnsupportedPlatform", pair[0], pair[1], err)
		}
	}
}

func newManager(t *testing.T) (*component.Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := component.NewForPlatform(dir, "linux-x64")
	if err != nil {
		t.Fatalf("NewForPlatform: %v", err)
	}
	return m, dir
}

// regularFilesUnder counts non-directory entries, ignoring the registry
// cache the manager itself writes at construction.
func regularFilesUnder(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() != "components.json" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestInstallEmptyChecksumFails(t *testing.T) {
	t.Parallel()

	m, dir := newManager(t)
	m.SetComponent("evil-tool", component.Component{
		Name: "Evil", Type: "tool", Version: "1.0",
		URLs:        map[string]string{"linux-x64": "https://example.invalid/evil.tar.gz"},
		SHA256:      map[string]string{"linux-x64": ""},
		InstallPath: "bin/evil",
	})

	_, err := m.Install(context.Background(), "evil-tool", nil)
	if !errors.Is(err, component.ErrMissingIntegrity) {
		t.Fatalf("Install = %v, want ErrMissingIntegrity", err)
	}
	if files := regularFilesUnder(t, dir); len(files) != 0 {
		t.Errorf("install with missing integrity wrote files: %v", files)
	}
}

func TestInstallUnknownComponent(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	if _, err := m.Install(context.Background(), "no-such-thing", nil); !errors.Is(err, component.ErrUnknown) {
		t.Errorf("Install = %v, want ErrUnknown", err)
	}
}

func TestInstallUnavailablePlatform(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	// whisper-cpp-metal ships only macOS builds.
	if _, err := m.Install(context.Background(), "whisper-cpp-metal", nil); !errors.Is(err, component.ErrUnavailable) {
		t.Errorf("Install = %v, want ErrUnavailable", err)
	}
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestInstallDownloadVerifyExtract(t *testing.T) {
	t.Parallel()

	payload := zipBytes(t, map[string]string{
		"mytool/mytool":  "#!/bin/sh\necho ok\n",
		"mytool/LICENSE": "MIT",
	})
	sum := sha256.Sum256(payload)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	m, dir := newManager(t)
	m.SetComponent("mytool", component.Component{
		Name: "My Tool", Type: "tool", Version: "2.0",
		URLs:        map[string]string{"linux-x64": srv.URL + "/mytool.zip"},
		SHA256:      map[string]string{"linux-x64": hex.EncodeToString(sum[:])},
		InstallPath: "bin/mytool",
		Executable:  "mytool",
	})

	var sawProgress bool
	path, err := m.Install(context.Background(), "mytool", func(downloaded, total int64) {
		sawProgress = true
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !sawProgress {
		t.Error("no progress callbacks during download")
	}

	bin := filepath.Join(path, "mytool", "mytool")
	info, err := os.Stat(bin)
	if err != nil {
		t.Fatalf("installed binary missing: %v", err)
	}
	if info.Mode()&0o111 == 0 {
		t.Error("installed binary is not executable")
	}

	if !m.IsInstalled("mytool") {
		t.Error("IsInstalled = false after install")
	}
	got, err := m.GetPath("mytool")
	if err != nil || got != path {
		t.Errorf("GetPath = %q, %v", got, err)
	}

	usage, err := m.DiskUsage()
	if err != nil || usage["mytool"] == 0 {
		t.Errorf("DiskUsage = %v, %v", usage, err)
	}

	removed, err := m.Uninstall("mytool")
	if err != nil || !removed {
		t.Fatalf("Uninstall = %v, %v", removed, err)
	}
	if m.IsInstalled("mytool") {
		t.Error("still installed after Uninstall")
	}
	if _, err := os.Stat(filepath.Join(dir, "bin", "mytool")); !os.IsNotExist(err) {
		t.Error("install directory still present after Uninstall")
	}
}

func TestInstallChecksumMismatch(t *testing.T) {
	t.Parallel()

	payload := zipBytes(t, map[string]string{"tool": "bytes"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	m, _ := newManager(t)
	m.SetComponent("tampered", component.Component{
		Name: "Tampered", Type: "tool", Version: "1.0",
		URLs:        map[string]string{"linux-x64": srv.URL + "/tool.zip"},
		SHA256:      map[string]string{"linux-x64": "deadbeef"},
		InstallPath: "bin/tampered",
	})
	if _, err := m.Install(context.Background(), "tampered", nil); !errors.Is(err, component.ErrIntegrityMismatch) {
		t.Errorf("Install = %v, want ErrIntegrityMismatch", err)
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	evil := filepath.Join(dir, "evil.zip")
	if err := os.WriteFile(evil, zipBytes(t, map[string]string{"../../etc/shadow": "pwned"}), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "install")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := component.ExtractZip(evil, dest); !errors.Is(err, component.ErrUnsafeArchive) {
		t.Fatalf("ExtractZip = %v, want ErrUnsafeArchive", err)
	}
	// Nothing may be materialized, inside or outside the destination.
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("unsafe extraction wrote entries: %v", entries)
	}
}

func tarGzBytes(t *testing.T, build func(*tar.Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	build(tw)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractTarRejectsEscapingSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	evil := filepath.Join(dir, "evil.tar.gz")
	payload := tarGzBytes(t, func(tw *tar.Writer) {
		tw.WriteHeader(&tar.Header{
			Name:     "link",
			Typeflag: tar.TypeSymlink,
			Linkname: "../../outside",
		})
	})
	if err := os.WriteFile(evil, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "install")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := component.ExtractTarGz(evil, dest); !errors.Is(err, component.ErrUnsafeArchive) {
		t.Errorf("ExtractTarGz = %v, want ErrUnsafeArchive", err)
	}
}

func TestExtractTarRejectsAbsolutePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	evil := filepath.Join(dir, "abs.tar.gz")
	payload := tarGzBytes(t, func(tw *tar.Writer) {
		tw.WriteHeader(&tar.Header{Name: "/etc/cron.d/evil", Typeflag: tar.TypeReg, Size: 0})
	})
	if err := os.WriteFile(evil, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := component.ExtractTarGz(evil, t.TempDir()); !errors.Is(err, component.ErrUnsafeArchive) {
		t.Errorf("ExtractTarGz = %v, want ErrUnsafeArchive", err)
	}
}

func TestUninstallRefusesPathOutsideRoot(t *testing.T) {
	t.Parallel()

	m, dir := newManager(t)
	outside := t.TempDir()
	victim := filepath.Join(outside, "precious.txt")
	if err := os.WriteFile(victim, []byte("do not delete"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Simulate a tampered installed.json pointing outside the data root.
	state := `{"components":{"rogue":{"version":"1.0","path":"` + victim + `","installed_at":"2026-01-01T00:00:00Z","size_bytes":1}}}`
	if err := os.WriteFile(filepath.Join(dir, "installed.json"), []byte(state), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Uninstall("rogue"); !errors.Is(err, component.ErrUnsafePath) {
		t.Errorf("Uninstall = %v, want ErrUnsafePath", err)
	}
	if _, err := os.Stat(victim); err != nil {
		t.Errorf("file outside data root was removed: %v", err)
	}
}

func TestGetPathMissingComponent(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	_, err := m.GetPath("whisper-cpp-cpu")
	if !errors.Is(err, component.ErrNotInstalled) {
		t.Errorf("GetPath = %v, want ErrNotInstalled", err)
	}
}

func TestListAvailableFiltersPlatform(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t) // linux-x64
	for _, c := range m.ListAvailable() {
		if c.ID == "whisper-cpp-metal" {
			t.Error("macOS-only component listed as available on linux-x64")
		}
	}
	// Models use the "*" wildcard and must always be available.
	var foundModel bool
	for _, c := range m.ListAvailable() {
		if c.ID == "model-whisper-base" {
			foundModel = true
		}
	}
	if !foundModel {
		t.Error("wildcard-platform model missing from ListAvailable")
	}
}

func TestFindWhisperModel(t *testing.T) {
	t.Parallel()

	m, dir := newManager(t)
	if _, ok := m.FindWhisperModel("base"); ok {
		t.Error("found a model that does not exist")
	}
	modelPath := filepath.Join(dir, "models", "whisper", "ggml-base.bin")
	if err := os.WriteFile(modelPath, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok := m.FindWhisperModel("base")
	if !ok || got != modelPath {
		t.Errorf("FindWhisperModel = %q, %v", got, ok)
	}
}

func TestRegistryCachePreferred(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// A fresh components.json must override the built-in registry.
	cached := `{"version":"1","_cached_at":` +
		// Far future keeps the cache fresh for the duration of the test run.
		`4102444800,` +
		`"components":{"custom-tool":{"name":"Custom","type":"tool","version":"9.9",` +
		`"urls":{"*":"https://example.invalid/custom.zip"},"sha256":{"*":"aa"},` +
		`"install_path":"bin/custom","size_bytes":1}}}`
	if err := os.WriteFile(filepath.Join(dir, "components.json"), []byte(cached), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := component.NewForPlatform(dir, "linux-x64")
	if err != nil {
		t.Fatal(err)
	}
	available := m.ListAvailable()
	if len(available) != 1 || available[0].ID != "custom-tool" {
		t.Errorf("ListAvailable = %+v, want only the cached custom-tool", available)
	}
}

func TestRegistryStaleCacheFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := `{"version":"1","_cached_at":1000,"components":{"old-tool":{"name":"Old","type":"tool","version":"0.1","urls":{"*":"u"},"sha256":{"*":"s"},"install_path":"bin/old","size_bytes":1}}}`
	if err := os.WriteFile(filepath.Join(dir, "components.json"), []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := component.NewForPlatform(dir, "linux-x64")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range m.ListAvailable() {
		if c.ID == "old-tool" {
			t.Error("stale registry cache was used")
		}
	}
}
