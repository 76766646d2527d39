package cache

import "errors"

// Sentinel errors for the transcription cache.
var (
	// ErrMiss indicates no usable cache entry exists for the input.
	ErrMiss = errors.New("cache miss")

	// ErrIncompatible indicates a cache file whose schema version this
	// build does not understand.
	ErrIncompatible = errors.New("incompatible cache version")

	// ErrStale indicates the source file changed since the cache was built.
	ErrStale = errors.New("stale cache")

	// ErrFingerprintMismatch indicates the cache was built with different
	// recognizer settings than the current run.
	ErrFingerprintMismatch = errors.New("cache fingerprint mismatch")
)
