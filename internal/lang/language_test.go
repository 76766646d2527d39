package lang_test

// Notes:
// - Black-box testing: all tests use the public API only (lang_test package).
// - Empty string and "auto" both mean auto-detect and must pass Validate.
// - The shape gate must reject anything that could smuggle path separators
//   into a rule-file lookup.

import (
	"errors"
	"testing"

	"github.com/lgezyxr/subgen/internal/lang"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"pt_BR", "pt-BR"},
		{"pt-br", "pt-BR"},
		{"ZH-tw", "zh-TW"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := lang.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"", "auto", "en", "zh", "zh-TW", "pt-BR", "yue", "cmn-Hans"} {
		if err := lang.Validate(code); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", code, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	for _, code := range []string{
		"e",
		"english",
		"en_US_X",
		"../etc",
		"zh/..",
		"zh-TW-x",
		"en-longsubtag",
		"12",
		"zh tw",
	} {
		err := lang.Validate(code)
		if !errors.Is(err, lang.ErrInvalid) {
			t.Errorf("Validate(%q) = %v, want ErrInvalid", code, err)
		}
	}
}

func TestBaseCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"pt-BR", "pt"},
		{"zh-TW", "zh"},
		{"en", "en"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := lang.BaseCode(tt.in); got != tt.want {
			t.Errorf("BaseCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	if got := lang.DisplayName("zh"); got != "中文" {
		t.Errorf("DisplayName(zh) = %q", got)
	}
	if got := lang.DisplayName("zh-TW"); got != "繁體中文" {
		t.Errorf("DisplayName(zh-TW) = %q", got)
	}
	// Unknown region falls back to the base name.
	if got := lang.DisplayName("fr-CA"); got != "Français" {
		t.Errorf("DisplayName(fr-CA) = %q", got)
	}
	// Fully unknown codes pass through normalized.
	if got := lang.DisplayName("tlh"); got != "tlh" {
		t.Errorf("DisplayName(tlh) = %q", got)
	}
}
