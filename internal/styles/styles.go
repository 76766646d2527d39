// Package styles defines subtitle style profiles: font settings, named
// presets, hex/ASS color conversion, and ASS header generation.
package styles

import "fmt"

// FontStyle describes the rendering of one subtitle line.
// Colors are stored as hex (#RRGGBB or #AARRGGBB); conversion to ASS
// notation happens only at export time.
type FontStyle struct {
	Name         string  `json:"name" yaml:"name"`
	Size         int     `json:"size" yaml:"size"`
	PrimaryColor string  `json:"primary_color" yaml:"primary_color"`
	OutlineColor string  `json:"outline_color" yaml:"outline_color"`
	OutlineWidth float64 `json:"outline_width" yaml:"outline_width"`
	ShadowWidth  float64 `json:"shadow_width" yaml:"shadow_width"`
	Bold         bool    `json:"bold" yaml:"bold"`
	Italic       bool    `json:"italic" yaml:"italic"`
}

// StyleProfile is a named pair of font styles plus layout for a subtitle
// track. Primary renders the translated line, Secondary the source line.
type StyleProfile struct {
	Name        string    `json:"name" yaml:"name"`
	Primary     FontStyle `json:"primary" yaml:"primary"`
	Secondary   FontStyle `json:"secondary" yaml:"secondary"`
	Alignment   int       `json:"alignment" yaml:"alignment"` // ASS numpad alignment, 2 = bottom center
	MarginL     int       `json:"margin_l" yaml:"margin_l"`
	MarginR     int       `json:"margin_r" yaml:"margin_r"`
	MarginV     int       `json:"margin_v" yaml:"margin_v"`
	LineSpacing int       `json:"line_spacing" yaml:"line_spacing"`
	PlayResX    int       `json:"play_res_x" yaml:"play_res_x"`
	PlayResY    int       `json:"play_res_y" yaml:"play_res_y"`
}

// Preset returns a copy of the named preset profile.
// Valid names: default, netflix, fansub, minimal.
func Preset(name string) (StyleProfile, error) {
	p, ok := presets[name]
	if !ok {
		return StyleProfile{}, fmt.Errorf("style preset %q (valid: default, netflix, fansub, minimal): %w",
			name, ErrUnknownPreset)
	}
	return p, nil
}

// Default returns the default style profile.
func Default() StyleProfile {
	return presets["default"]
}

var presets = map[string]StyleProfile{
	"default": {
		Name: "default",
		Primary: FontStyle{
			Name: "Arial", Size: 24,
			PrimaryColor: "#FFFFFF", OutlineColor: "#000000",
			OutlineWidth: 1.5, ShadowWidth: 0.5,
		},
		Secondary: FontStyle{
			Name: "Arial", Size: 16,
			PrimaryColor: "#CCCCCC", OutlineColor: "#000000",
			OutlineWidth: 1.0, ShadowWidth: 0,
		},
		Alignment: 2, MarginL: 10, MarginR: 10, MarginV: 20,
		PlayResX: 1920, PlayResY: 1080,
	},
	"netflix": {
		Name: "netflix",
		Primary: FontStyle{
			Name: "Netflix Sans", Size: 28,
			PrimaryColor: "#FFFFFF", OutlineColor: "#000000",
			OutlineWidth: 2.0, ShadowWidth: 0,
		},
		Secondary: FontStyle{
			Name: "Netflix Sans", Size: 18,
			PrimaryColor: "#E5E5E5", OutlineColor: "#000000",
			OutlineWidth: 1.5, ShadowWidth: 0,
		},
		Alignment: 2, MarginL: 60, MarginR: 60, MarginV: 40,
		PlayResX: 1920, PlayResY: 1080,
	},
	"fansub": {
		Name: "fansub",
		Primary: FontStyle{
			Name: "Source Han Sans", Size: 30,
			PrimaryColor: "#FFFFFF", OutlineColor: "#1A1A66",
			OutlineWidth: 2.5, ShadowWidth: 1.0, Bold: true,
		},
		Secondary: FontStyle{
			Name: "Arial", Size: 18,
			PrimaryColor: "#99CCFF", OutlineColor: "#1A1A66",
			OutlineWidth: 1.5, ShadowWidth: 0, Italic: true,
		},
		Alignment: 2, MarginL: 20, MarginR: 20, MarginV: 25,
		LineSpacing: 2,
		PlayResX:    1920, PlayResY: 1080,
	},
	"minimal": {
		Name: "minimal",
		Primary: FontStyle{
			Name: "Helvetica", Size: 22,
			PrimaryColor: "#FFFFFF", OutlineColor: "#000000",
			OutlineWidth: 0, ShadowWidth: 0,
		},
		Secondary: FontStyle{
			Name: "Helvetica", Size: 14,
			PrimaryColor: "#AAAAAA", OutlineColor: "#000000",
			OutlineWidth: 0, ShadowWidth: 0,
		},
		Alignment: 2, MarginL: 10, MarginR: 10, MarginV: 15,
		PlayResX: 1920, PlayResY: 1080,
	},
}

// Override carries optional per-run style tweaks. Empty strings and zero
// values leave the preset field untouched.
type Override struct {
	PrimaryFont    string
	PrimarySize    int
	PrimaryColor   string
	SecondaryFont  string
	SecondarySize  int
	SecondaryColor string
}

// Resolve builds the effective profile from a preset name plus overrides.
// Color overrides are validated before being applied.
func Resolve(preset string, ov Override) (StyleProfile, error) {
	if preset == "" {
		preset = "default"
	}
	p, err := Preset(preset)
	if err != nil {
		return StyleProfile{}, err
	}
	if ov.PrimaryFont != "" {
		p.Primary.Name = ov.PrimaryFont
	}
	if ov.PrimarySize > 0 {
		p.Primary.Size = ov.PrimarySize
	}
	if ov.PrimaryColor != "" {
		if _, err := HexToASSColor(ov.PrimaryColor); err != nil {
			return StyleProfile{}, err
		}
		p.Primary.PrimaryColor = ov.PrimaryColor
	}
	if ov.SecondaryFont != "" {
		p.Secondary.Name = ov.SecondaryFont
	}
	if ov.SecondarySize > 0 {
		p.Secondary.Size = ov.SecondarySize
	}
	if ov.SecondaryColor != "" {
		if _, err := HexToASSColor(ov.SecondaryColor); err != nil {
			return StyleProfile{}, err
		}
		p.Secondary.PrimaryColor = ov.SecondaryColor
	}
	return p, nil
}
