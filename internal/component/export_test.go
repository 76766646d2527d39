package component

// Test-only accessors for wiring fake registries and platforms.

func NewForPlatform(baseDir, platform string) (*Manager, error) {
	return newForPlatform(baseDir, platform)
}

func DetectPlatformFor(goos, goarch string) (string, error) {
	return detectPlatform(goos, goarch)
}

func (m *Manager) SetComponent(id string, c Component) {
	m.registry.Components[id] = c
}

func ExtractZip(archivePath, dest string) error {
	return extractZip(archivePath, dest)
}

func ExtractTarGz(archivePath, dest string) error {
	return extractTarGz(archivePath, dest)
}
