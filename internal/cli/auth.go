package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lgezyxr/subgen/internal/config"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored provider credentials",
	}
	cmd.AddCommand(authLoginCmd(), authLogoutCmd(), authStatusCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store an API key for a provider",
		Long: `Store an API key for a provider (openai, deepseek, anthropic, copilot)
in ~/.subgen/credentials.json.

Browser-based login is not supported; create the key in the provider's
console and pass it with --key, or export <PROVIDER>_API_KEY instead.`,
		Example: `  subgen auth login openai --key sk-...
  subgen auth login deepseek --key sk-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := args[0]
			if key == "" {
				fmt.Fprintf(cmd.OutOrStdout(),
					"No key given. Create an API key in the %s console, then run:\n\n"+
						"  subgen auth login %s --key <key>\n\n"+
						"or export %s_API_KEY in your shell.\n",
					provider, provider, strings.ToUpper(provider))
				return nil
			}
			if err := config.SaveCredential(provider, config.Credential{
				APIKey:  key,
				SavedAt: time.Now().Format(time.RFC3339),
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credential for %s stored\n", provider)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key to store")
	return cmd
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <provider>",
		Short: "Delete a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.DeleteCredential(args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No credential stored for %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credential for %s removed\n", args[0])
			return nil
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List providers with stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := config.LoadCredentials()
			if len(creds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No credentials stored")
				return nil
			}
			for provider, cred := range creds {
				state := "ok"
				if cred.Expired() {
					state = "EXPIRED"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s (saved %s)\n", provider, state, cred.SavedAt)
			}
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Show how to set up subgen",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), `subgen has no interactive wizard. To set up by hand:

  1. Install the recognizer and a model:
       subgen install whisper-cpp-cpu
       subgen install model-whisper-large-v3
  2. Install ffmpeg (or use your system's package manager):
       subgen install ffmpeg
  3. Store a translation API key:
       subgen auth login openai --key sk-...
  4. Optionally write %s/config.yaml to change defaults.

Check the result with 'subgen doctor'.
`, config.DataRoot())
			return nil
		},
	}
}
