package translate

import "errors"

// Sentinel errors for translation and proofreading.
var (
	// ErrTranslationFailed indicates the LLM conversation failed beyond
	// the tail-retry budget.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrProofreadFailed indicates a proofread window failed. Callers keep
	// the pre-proofread translation.
	ErrProofreadFailed = errors.New("proofread failed")
)
