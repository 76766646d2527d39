package styles

import (
	"fmt"
	"strings"
)

// assStyleFormat is the column order every Style line below must follow.
const assStyleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, " +
	"SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, " +
	"StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, " +
	"Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"

// PrimaryStyleName and SecondaryStyleName are the style identifiers used in
// Dialogue lines; inline {\r...} overrides reference SecondaryStyleName.
const (
	PrimaryStyleName   = "Default"
	SecondaryStyleName = "Secondary"
)

// ASSHeader renders the [Script Info] and [V4+ Styles] sections for a
// profile. Colors must be valid hex; otherwise ErrBadColor is returned.
func ASSHeader(p StyleProfile) (string, error) {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("Title: SubGen Export\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", p.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", p.PlayResY)
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString(assStyleFormat + "\n")

	primary, err := styleLine(PrimaryStyleName, p.Primary, p)
	if err != nil {
		return "", err
	}
	secondary, err := styleLine(SecondaryStyleName, p.Secondary, p)
	if err != nil {
		return "", err
	}
	b.WriteString(primary + "\n")
	b.WriteString(secondary + "\n")
	return b.String(), nil
}

func styleLine(name string, f FontStyle, p StyleProfile) (string, error) {
	primary, err := HexToASSColor(f.PrimaryColor)
	if err != nil {
		return "", err
	}
	outline, err := HexToASSColor(f.OutlineColor)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"Style: %s,%s,%d,%s,%s,%s,&H00000000,%d,%d,0,0,100,100,%d,0,1,%.1f,%.1f,%d,%d,%d,%d,1",
		name, f.Name, f.Size, primary, primary, outline,
		assBool(f.Bold), assBool(f.Italic),
		p.LineSpacing,
		f.OutlineWidth, f.ShadowWidth,
		p.Alignment, p.MarginL, p.MarginR, p.MarginV,
	), nil
}

// ASS encodes booleans as -1 (true) and 0 (false).
func assBool(v bool) int {
	if v {
		return -1
	}
	return 0
}
