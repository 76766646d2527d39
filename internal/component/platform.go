package component

import (
	"fmt"
	"runtime"
)

// Canonical platform keys used in the component registry.
const (
	PlatformWindowsX64 = "windows-x64"
	PlatformLinuxX64   = "linux-x64"
	PlatformLinuxARM64 = "linux-arm64"
	PlatformMacX64     = "macos-x64"
	PlatformMacARM64   = "macos-arm64"
)

// DetectPlatform maps the running OS/arch to a canonical platform key.
// Unrecognized pairs are a hard error so we never download a wrong binary.
func DetectPlatform() (string, error) {
	return detectPlatform(runtime.GOOS, runtime.GOARCH)
}

func detectPlatform(goos, goarch string) (string, error) {
	switch goos {
	case "windows":
		if goarch == "amd64" {
			return PlatformWindowsX64, nil
		}
	case "linux":
		switch goarch {
		case "amd64":
			return PlatformLinuxX64, nil
		case "arm64":
			return PlatformLinuxARM64, nil
		}
	case "darwin":
		switch goarch {
		case "amd64":
			return PlatformMacX64, nil
		case "arm64":
			return PlatformMacARM64, nil
		}
	}
	return "", fmt.Errorf("%s/%s: %w", goos, goarch, ErrUnsupportedPlatform)
}

// exeSuffix returns the executable filename suffix for a platform key.
func exeSuffix(platform string) string {
	if platform == PlatformWindowsX64 {
		return ".exe"
	}
	return ""
}
