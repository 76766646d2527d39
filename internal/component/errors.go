package component

import "errors"

// Sentinel errors for component management.
var (
	// ErrUnknown indicates a component id not present in the registry.
	ErrUnknown = errors.New("unknown component")

	// ErrNotInstalled indicates a required component is missing. The
	// wrapping message names the exact install command.
	ErrNotInstalled = errors.New("component not installed")

	// ErrUnsupportedPlatform indicates the current OS/arch pair has no
	// canonical platform key. Installation never falls back to a guess.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrUnavailable indicates the component exists but has no download
	// URL for the current platform.
	ErrUnavailable = errors.New("component not available for this platform")

	// ErrMissingIntegrity indicates a registry entry with an empty SHA-256.
	// Downloads without a checksum are refused, never silently trusted.
	ErrMissingIntegrity = errors.New("missing integrity checksum")

	// ErrIntegrityMismatch indicates the downloaded bytes do not match the
	// registry checksum.
	ErrIntegrityMismatch = errors.New("checksum mismatch")

	// ErrUnsafeArchive indicates an archive entry that would escape the
	// install directory.
	ErrUnsafeArchive = errors.New("unsafe archive")

	// ErrUnsafePath indicates a recorded install path resolving outside
	// the user data root.
	ErrUnsafePath = errors.New("path outside data root")

	// ErrLocked indicates another install/uninstall holds the state lock.
	ErrLocked = errors.New("component state is locked by another process")
)
