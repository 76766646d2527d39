package subtitle

import "errors"

// Sentinel errors for subtitle encoding and parsing.
var (
	// ErrBadCue indicates a malformed cue in a subtitle file being read.
	ErrBadCue = errors.New("malformed subtitle cue")

	// ErrUnknownFormat indicates an unsupported subtitle output format.
	ErrUnknownFormat = errors.New("unknown subtitle format")

	// ErrNoSegments indicates an export was requested for an empty project.
	ErrNoSegments = errors.New("no segments to export")
)
