// Package lang validates and normalizes the language codes that flow through
// the pipeline: recognizer hints, translation targets, and rule-file lookup.
package lang

import (
	"fmt"
	"regexp"
	"strings"
)

// codePattern is the shape every language code must satisfy before it is used
// anywhere — in particular before it is joined into a rule-file path.
// ISO 639-1/2 base code with an optional region or script subtag.
var codePattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,4})?$`)

// Auto is the pseudo-code meaning "let the recognizer detect the language".
const Auto = "auto"

// Normalize normalizes a language code to lowercase with hyphen separator,
// preserving the uppercase convention for region subtags.
// Accepts: "pt_BR", "PT-BR", "pt-br" -> "pt-BR"; "ZH" -> "zh".
func Normalize(code string) string {
	code = strings.ReplaceAll(code, "_", "-")
	base, region, found := strings.Cut(code, "-")
	base = strings.ToLower(base)
	if !found {
		return base
	}
	return base + "-" + strings.ToUpper(region)
}

// Validate checks that the language code is well formed.
// Empty and "auto" are valid (auto-detect). Anything else must match
// codePattern; malformed codes return ErrInvalid.
func Validate(code string) error {
	if code == "" || code == Auto {
		return nil
	}
	if !codePattern.MatchString(code) {
		return fmt.Errorf("invalid language code %q (use ISO codes like 'en', 'ja', 'zh-TW'): %w",
			code, ErrInvalid)
	}
	return nil
}

// BaseCode extracts the base language code from a locale.
// Recognizer APIs only accept base codes, not regional variants.
// Examples: "pt-BR" -> "pt", "zh-TW" -> "zh", "en" -> "en".
func BaseCode(code string) string {
	if code == "" {
		return ""
	}
	base, _, _ := strings.Cut(Normalize(code), "-")
	return base
}

// displayNames maps codes to the names used in translation prompts.
// Native-script names nudge the model toward the right output register.
var displayNames = map[string]string{
	Auto:    "source language",
	"zh":    "中文",
	"zh-TW": "繁體中文",
	"en":    "English",
	"ja":    "日本語",
	"ko":    "한국어",
	"fr":    "Français",
	"de":    "Deutsch",
	"es":    "Español",
	"pt":    "Português",
	"pt-BR": "Português do Brasil",
	"ru":    "Русский",
	"ar":    "العربية",
	"th":    "ภาษาไทย",
	"vi":    "Tiếng Việt",
	"it":    "Italiano",
	"nl":    "Nederlands",
	"pl":    "Polski",
	"tr":    "Türkçe",
	"id":    "Bahasa Indonesia",
	"hi":    "हिन्दी",
}

// DisplayName returns the prompt-facing name for a language code.
// Falls back to the normalized code itself for unknown locales.
func DisplayName(code string) string {
	n := Normalize(code)
	if name, ok := displayNames[n]; ok {
		return name
	}
	if name, ok := displayNames[BaseCode(code)]; ok {
		return name
	}
	return n
}
