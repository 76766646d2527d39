package translate

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lgezyxr/subgen/internal/lang"
)

//go:embed rules/*.md
var embeddedRules embed.FS

// LoadRules returns the translation rules for a target language code.
// Lookup order is exact code, then language family, then default, first in
// overrideDir (when set) and then in the embedded rule set. The code is
// validated before any path is built, so it can never escape the rules
// directory. Returns "" when no rules exist for the language.
func LoadRules(code, overrideDir string) (string, error) {
	if code != "" && code != lang.Auto {
		if err := lang.Validate(code); err != nil {
			return "", fmt.Errorf("rules lookup: %w", err)
		}
	}

	var names []string
	if code != "" && code != lang.Auto {
		code = lang.Normalize(code)
		names = append(names, code+".md")
		if base := lang.BaseCode(code); base != code {
			names = append(names, base+".md")
		}
	}
	names = append(names, "default.md")

	for _, name := range names {
		if overrideDir != "" {
			if raw, err := os.ReadFile(filepath.Join(overrideDir, name)); err == nil {
				return stripHeadings(string(raw)), nil
			}
		}
		if raw, err := embeddedRules.ReadFile("rules/" + name); err == nil {
			return stripHeadings(string(raw)), nil
		}
	}
	return "", nil
}

// stripHeadings drops level-1 Markdown headings, keeping only rule content.
func stripHeadings(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
