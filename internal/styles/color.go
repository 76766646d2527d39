package styles

import (
	"fmt"
	"regexp"
	"strings"
)

// Hex colors are stored as #RRGGBB or #AARRGGBB. ASS wants &HAABBGGRR
// (alpha first, then the channels reversed).
var hexColorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

// HexToASSColor converts a hex color to ASS &HAABBGGRR notation.
// #RRGGBB maps to &H00BBGGRR (fully opaque); #AARRGGBB maps to &HAABBGGRR.
func HexToASSColor(hex string) (string, error) {
	if !hexColorPattern.MatchString(hex) {
		return "", fmt.Errorf("%q is not #RRGGBB or #AARRGGBB hex: %w", hex, ErrBadColor)
	}
	h := strings.ToUpper(hex[1:])
	aa := "00"
	if len(h) == 8 {
		aa = h[:2]
		h = h[2:]
	}
	rr, gg, bb := h[0:2], h[2:4], h[4:6]
	return "&H" + aa + bb + gg + rr, nil
}

// ASSColorToHex inverts HexToASSColor. Zero alpha folds back to the short
// #RRGGBB form so that the round trip through ASS is the identity.
func ASSColorToHex(ass string) (string, error) {
	s := strings.ToUpper(ass)
	s = strings.TrimPrefix(s, "&H")
	s = strings.TrimSuffix(s, "&")
	if len(s) == 6 {
		s = "00" + s
	}
	if len(s) != 8 || !isHex(s) {
		return "", fmt.Errorf("%q is not an ASS &HAABBGGRR color: %w", ass, ErrBadColor)
	}
	aa, bb, gg, rr := s[0:2], s[2:4], s[4:6], s[6:8]
	if aa == "00" {
		return "#" + rr + gg + bb, nil
	}
	return "#" + aa + rr + gg + bb, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
