package engine

import "errors"

var (
	// ErrCancelled marks a run stopped by the caller. The project returned
	// alongside it holds whatever stages completed.
	ErrCancelled = errors.New("run cancelled")

	// ErrBadInput marks an unusable input file or language selection.
	ErrBadInput = errors.New("bad input")
)
