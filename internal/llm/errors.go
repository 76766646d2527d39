package llm

import "errors"

// Sentinel errors for LLM provider construction.
var (
	// ErrUnknownProvider indicates an unrecognized translation.provider value.
	ErrUnknownProvider = errors.New("unknown LLM provider")

	// ErrBadBaseURL indicates a base_url or Ollama host that is not a
	// valid http or https URL.
	ErrBadBaseURL = errors.New("invalid base URL")
)
