package audio

// Test-only accessors.

var (
	EscapeFilterPath     = escapeFilterPath
	ParseSubtitleStreams = parseSubtitleStreams
)
