package cli

import (
	"fmt"
	"io"

	"github.com/lgezyxr/subgen/internal/engine"
)

// progressPrinter renders pipeline progress as one updating line per stage.
func progressPrinter(w io.Writer) engine.ProgressFunc {
	var last engine.Stage
	return func(stage engine.Stage, current, total int) {
		if stage != last {
			if last != "" {
				fmt.Fprintln(w)
			}
			last = stage
		}
		if total > 0 {
			fmt.Fprintf(w, "\r%-13s %3d%%", stage, current*100/total)
		} else {
			fmt.Fprintf(w, "\r%-13s", stage)
		}
	}
}

// humanBytes renders a byte count for download progress.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
