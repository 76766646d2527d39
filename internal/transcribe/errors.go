package transcribe

import "errors"

// Sentinel errors for transcription.
var (
	// ErrFailed indicates the recognizer itself failed (process exit,
	// API error after retries).
	ErrFailed = errors.New("transcription failed")

	// ErrBadOutput indicates the recognizer produced output this package
	// cannot parse. The wrapping message carries a short diagnostic.
	ErrBadOutput = errors.New("bad transcription output")

	// ErrUnknownProvider indicates an unrecognized whisper.provider value.
	ErrUnknownProvider = errors.New("unknown transcription provider")

	// ErrFileTooLarge indicates an audio file over the cloud API size limit.
	ErrFileTooLarge = errors.New("audio file too large")

	// ErrNotInstalled indicates the local engine binary or model file is
	// missing. The wrapping message names the install command.
	ErrNotInstalled = errors.New("recognizer component not installed")
)
