package styles

import "errors"

// Sentinel errors for style handling.
var (
	// ErrBadColor indicates a color string that is not valid #RRGGBB or #AARRGGBB hex.
	ErrBadColor = errors.New("bad color")

	// ErrUnknownPreset indicates a style preset name that is not registered.
	ErrUnknownPreset = errors.New("unknown style preset")
)
