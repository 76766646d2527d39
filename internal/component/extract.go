package component

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Safe extraction: every entry path is validated against the destination
// before anything is written, so a hostile archive cannot place files
// outside the install directory.

// securePath resolves an archive entry name under dest, rejecting absolute
// names, drive letters, and ".." escapes.
func securePath(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, ":") {
		return "", fmt.Errorf("entry %q has an absolute or drive path: %w", name, ErrUnsafeArchive)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the install directory: %w", name, ErrUnsafeArchive)
	}
	return filepath.Join(dest, cleaned), nil
}

// extractArchive dispatches on the URL/file suffix.
func extractArchive(archivePath, url, dest string) error {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return extractZip(archivePath, dest)
	case strings.HasSuffix(url, ".tar.gz"), strings.HasSuffix(url, ".tgz"):
		return extractTarGz(archivePath, dest)
	case strings.HasSuffix(url, ".tar.xz"):
		return fmt.Errorf("tar.xz archives are not supported, use a zip or tar.gz artifact")
	default:
		return fmt.Errorf("unrecognized archive type: %s", url)
	}
}

func extractZip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer r.Close()

	// Validate every entry before materializing any of them.
	targets := make([]string, len(r.File))
	for i, entry := range r.File {
		target, err := securePath(dest, entry.Name)
		if err != nil {
			return err
		}
		if entry.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("zip entry %q is a symlink: %w", entry.Name, ErrUnsafeArchive)
		}
		targets[i] = target
	}

	for i, entry := range r.File {
		if err := writeZipEntry(entry, targets[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(entry *zip.File, target string) error {
	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("reading zip entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("extracting %s: %w", entry.Name, err)
	}
	return dst.Close()
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening tar.gz: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}
		target, err := securePath(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			mode := os.FileMode(hdr.Mode).Perm()
			if mode == 0 {
				mode = 0o644
			}
			dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return err
			}
			if _, err := io.Copy(dst, tr); err != nil {
				dst.Close()
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			if err := dst.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink, tar.TypeLink:
			// Symlink targets are resolved relative to the entry's directory.
			linkTarget := hdr.Linkname
			if !filepath.IsAbs(linkTarget) {
				linkTarget = filepath.Join(filepath.Dir(target), linkTarget)
			}
			if err := assertWithin(dest, linkTarget); err != nil {
				return fmt.Errorf("entry %q links to %q: %w", hdr.Name, hdr.Linkname, ErrUnsafeArchive)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			return fmt.Errorf("entry %q has unexpected type %d: %w", hdr.Name, hdr.Typeflag, ErrUnsafeArchive)
		}
	}
}

func assertWithin(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ErrUnsafeArchive
	}
	return nil
}
