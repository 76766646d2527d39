package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgezyxr/subgen/internal/component"
	"github.com/lgezyxr/subgen/internal/config"
)

func manager() (*component.Manager, error) {
	return component.New(config.DataRoot())
}

// downloadProgress renders byte-level download progress on one line.
func downloadProgress(name string) component.Progress {
	return func(downloaded, total int64) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s  %s / %s (%d%%)",
				name, humanBytes(downloaded), humanBytes(total), downloaded*100/total)
		} else {
			fmt.Fprintf(os.Stderr, "\r%s  %s", name, humanBytes(downloaded))
		}
	}
}

func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <component>",
		Short: "Download and install a component",
		Long: `Download, verify, and install a component under ~/.subgen.

Components include the whisper.cpp engine builds, whisper models
(model-whisper-tiny ... model-whisper-large-v3), and ffmpeg.
Run 'subgen components' for the full list.`,
		Example: `  subgen install whisper-cpp-cpu
  subgen install model-whisper-large-v3
  subgen install ffmpeg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			path, err := m.Install(cmd.Context(), args[0], downloadProgress(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nInstalled %s at %s\n", args[0], path)
			return nil
		},
	}
}

func uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <component>",
		Short: "Remove an installed component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			removed, err := m.Uninstall(args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(os.Stderr, "%s is not installed\n", args[0])
				return nil
			}
			fmt.Fprintf(os.Stderr, "Removed %s\n", args[0])
			return nil
		},
	}
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <component>",
		Short: "Reinstall a component when a newer version is available",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			path, changed, err := m.Update(cmd.Context(), args[0], downloadProgress(args[0]))
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(os.Stderr, "\nUpdated %s at %s\n", args[0], path)
			} else {
				fmt.Fprintf(os.Stderr, "%s is up to date\n", args[0])
			}
			return nil
		},
	}
}

func componentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List available and installed components",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager()
			if err != nil {
				return err
			}
			installed, err := m.ListInstalled()
			if err != nil {
				return err
			}
			versions := map[string]string{}
			for _, inst := range installed {
				versions[inst.ID] = inst.Version
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Platform: %s\n\n", m.Platform())
			for _, c := range m.ListAvailable() {
				mark := " "
				note := c.Version
				if v, ok := versions[c.ID]; ok {
					mark = "*"
					note = v
					if m.NeedsUpdate(c.ID) {
						note += " (update available: " + c.Version + ")"
					}
				}
				fmt.Fprintf(w, "%s %-28s %-8s %10s  %s\n",
					mark, c.ID, note, humanBytes(c.SizeBytes), c.Description)
			}
			fmt.Fprintln(w, "\n* installed")
			return nil
		},
	}
}

func doctorCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report the state of tools, components, and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(debug)
			m, err := manager()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "Data root:  %s\n", config.DataRoot())
			fmt.Fprintf(w, "Platform:   %s\n\n", m.Platform())

			report(w, "ffmpeg", m.FindFFmpeg, "subgen install ffmpeg")
			report(w, "ffprobe", m.FindFFprobe, "subgen install ffmpeg")
			report(w, "whisper.cpp", m.FindWhisperEngine, "subgen install whisper-cpp-cpu")

			cfg, err := config.Load("")
			if err != nil {
				fmt.Fprintf(w, "config:      BROKEN (%v)\n", err)
			} else {
				fmt.Fprintf(w, "config:      whisper=%s/%s translation=%s/%s target=%s\n",
					cfg.Whisper.Provider, cfg.Whisper.LocalModel,
					cfg.Translation.Provider, cfg.Translation.Model,
					cfg.Output.TargetLanguage)
				report(w, "model "+cfg.Whisper.LocalModel, func() (string, bool) {
					return m.FindWhisperModel(cfg.Whisper.LocalModel)
				}, "subgen install model-whisper-"+cfg.Whisper.LocalModel)
			}

			creds := config.LoadCredentials()
			if len(creds) == 0 {
				fmt.Fprintln(w, "credentials: none stored (environment variables still apply)")
			} else {
				providers := make([]string, 0, len(creds))
				for p := range creds {
					providers = append(providers, p)
				}
				sort.Strings(providers)
				fmt.Fprintf(w, "credentials: %s\n", strings.Join(providers, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Verbose logging to stderr")
	return cmd
}

func report(w io.Writer, name string, find func() (string, bool), installHint string) {
	if path, ok := find(); ok {
		fmt.Fprintf(w, "%-12s %s\n", name+":", path)
		return
	}
	fmt.Fprintf(w, "%-12s MISSING (run '%s')\n", name+":", installHint)
}
