package config

import "errors"

// Sentinel errors for configuration handling.
var (
	// ErrNotFound indicates an explicitly requested config file does not exist.
	ErrNotFound = errors.New("config file not found")

	// ErrBadConfig indicates a type or shape mismatch in the config file.
	// The wrapping message carries the dotted path of the offending key.
	ErrBadConfig = errors.New("bad config")

	// ErrCredential indicates a required API credential could not be resolved.
	ErrCredential = errors.New("missing credential")
)
