package translate

import (
	"regexp"
	"strconv"
	"strings"
)

// numberedLinePattern accepts the enumerator styles LLMs produce:
// "3: text", "3. text", "3) text", and the fullwidth variants.
var numberedLinePattern = regexp.MustCompile(`^\s*(\d+)\s*[:.)、．：]\s*(.*)$`)

// parseNumbered extracts indexed lines of the form "N: text" from an LLM
// reply. Indexes outside [1, expected] are dropped. When the reply carries
// no enumerators at all but its non-blank line count matches expected, the
// lines are taken positionally.
func parseNumbered(reply string, expected int) map[int]string {
	out := make(map[int]string, expected)
	var plain []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := numberedLinePattern.FindStringSubmatch(line)
		if m == nil {
			plain = append(plain, line)
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > expected {
			continue
		}
		if text := strings.TrimSpace(m[2]); text != "" {
			out[idx] = text
		}
	}

	if len(out) == 0 && len(plain) == expected {
		for i, line := range plain {
			out[i+1] = line
		}
	}
	return out
}
