package cli

import (
	"context"
	"errors"

	"github.com/lgezyxr/subgen/internal/apierr"
	"github.com/lgezyxr/subgen/internal/audio"
	"github.com/lgezyxr/subgen/internal/component"
	"github.com/lgezyxr/subgen/internal/config"
	"github.com/lgezyxr/subgen/internal/engine"
	"github.com/lgezyxr/subgen/internal/lang"
	"github.com/lgezyxr/subgen/internal/llm"
	"github.com/lgezyxr/subgen/internal/styles"
	"github.com/lgezyxr/subgen/internal/transcribe"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitConfig     = 3
	ExitComponent  = 4
	ExitCredential = 5
	ExitCancelled  = 6
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK

	case errors.Is(err, engine.ErrCancelled),
		errors.Is(err, context.Canceled):
		return ExitCancelled

	case errors.Is(err, config.ErrCredential),
		errors.Is(err, apierr.ErrAuthFailed):
		return ExitCredential

	case errors.Is(err, component.ErrUnknown),
		errors.Is(err, component.ErrNotInstalled),
		errors.Is(err, component.ErrUnavailable),
		errors.Is(err, transcribe.ErrNotInstalled),
		errors.Is(err, audio.ErrToolMissing):
		return ExitComponent

	case errors.Is(err, config.ErrNotFound),
		errors.Is(err, config.ErrBadConfig):
		return ExitConfig

	case errors.Is(err, engine.ErrBadInput),
		errors.Is(err, lang.ErrInvalid),
		errors.Is(err, styles.ErrUnknownPreset),
		errors.Is(err, styles.ErrBadColor),
		errors.Is(err, llm.ErrUnknownProvider),
		errors.Is(err, transcribe.ErrUnknownProvider):
		return ExitUsage

	default:
		return ExitGeneral
	}
}
