package audio

import "errors"

// Sentinel errors for audio and video tooling.
var (
	// ErrToolMissing indicates ffmpeg or ffprobe could not be located.
	ErrToolMissing = errors.New("tool not found")

	// ErrExtractionFailed indicates ffmpeg failed to produce output.
	ErrExtractionFailed = errors.New("audio extraction failed")

	// ErrProbeFailed indicates ffprobe failed or produced unusable output.
	ErrProbeFailed = errors.New("probe failed")

	// ErrEmbedFailed indicates subtitle muxing or burn-in failed.
	ErrEmbedFailed = errors.New("subtitle embed failed")
)
