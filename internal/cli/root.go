// Package cli wires the cobra command tree to the engine and maps errors
// to exit codes.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// New builds the root command.
func New(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "subgen",
		Short:   "Generate translated subtitles from video and audio files",
		Version: version,
		// Errors and usage are printed by main with the right exit code.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		runCmd(),
		installCmd(),
		uninstallCmd(),
		updateCmd(),
		componentsCmd(),
		doctorCmd(),
		authCmd(),
		initCmd(),
	)
	return root
}

// setupLogging installs the global logger. Debug runs log everything to
// stderr; normal runs only surface warnings.
func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
