package cmd

import (
	"fmt"
	"os"

	"github.com/Rana718/pbinit/internal/config"
	"github.com/Rana718/pbinit/template"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter pbinit config",
	Long: `Write pbinit.config.json and add the PBINIT_* variables to .env.
Existing .env content is preserved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		url, _ := cmd.Flags().GetString("url")
		emails, _ := cmd.Flags().GetStringSlice("god-mode")
		return initializeProject(cmd, url, emails, force)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolP("force", "f", false, "overwrite an existing config file")
	initCmd.Flags().StringSlice("god-mode", nil, "god mode emails to put in the config")
}

func initializeProject(cmd *cobra.Command, url string, emails []string, force bool) error {
	if config.IsInitialized() && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", config.ConfigFile)
	}

	tmpl := template.NewProjectTemplate(url, emails)

	if err := os.WriteFile(config.ConfigFile, []byte(tmpl.GetPbinitConfig()), 0644); err != nil {
		return fmt.Errorf("failed to create file %s: %w", config.ConfigFile, err)
	}

	envChanged, err := template.AppendEnv(".env", tmpl.GetEnvTemplate())
	if err != nil {
		return fmt.Errorf("failed to handle .env file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✅ Successfully initialized pbinit")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "📝 Configuration file created:")
	fmt.Fprintf(out, "   %s\n", config.ConfigFile)
	if envChanged {
		fmt.Fprintln(out, "   .env (PBINIT_URL, PBINIT_ADMIN_EMAIL, PBINIT_ADMIN_PASSWORD)")
	} else {
		fmt.Fprintln(out, "ℹ️  Skipped .env (PBINIT_ADMIN_EMAIL already set)")
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "🚀 Next steps:\n")
	fmt.Fprintf(out, "   edit god_mode.emails in %s\n", config.ConfigFile)
	fmt.Fprintf(out, "   pbinit status   # Inspect the instance\n")
	fmt.Fprintf(out, "   pbinit apply    # Create collections and god mode users\n")
	return nil
}
