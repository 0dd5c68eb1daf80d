package cmd

import (
	"fmt"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/pull"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Write the collections of a live instance to a schema file",
	Long: `
Introspect PocketBase and write its collections as a JSON or YAML document.
The result can be used as schema.file to provision another instance.
Listing collections requires admin credentials.

Examples:
  pbinit pull --out pb_schema/collections.json
  pbinit pull --out collections.yaml --backup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Default()

		ctx, cancel := signalContext(cmd)
		defer cancel()

		client := pocketbase.New(pocketbase.Options{
			URL:     cfg.URL,
			Timeout: cfg.HTTP.Timeout,
			Retries: cfg.HTTP.Retries,
			Logger:  log,
		})
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("failed to reach PocketBase: %w", err)
		}
		if cfg.HasAdmin() {
			if err := client.AuthAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
				log.Warn("admin authentication failed, continuing unauthenticated", "err", err)
			}
		}

		opts := pull.Options{}
		opts.OutputPath, _ = cmd.Flags().GetString("out")
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.Backup, _ = cmd.Flags().GetBool("backup")
		opts.System, _ = cmd.Flags().GetBool("system")

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "🔍 Introspecting PocketBase collections...")
		path, defs, err := pull.NewService(client).PullSchema(ctx, opts)
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintln(out, "📄 No collections found")
			return nil
		}
		fmt.Fprintf(out, "✅ Schema written: %s\n", path)
		fmt.Fprintf(out, "📊 Processed %d collections\n", len(defs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)

	pullCmd.Flags().String("out", "", "output file or directory")
	pullCmd.Flags().String("format", "", "output format: json or yaml")
	pullCmd.Flags().Bool("backup", false, "copy an existing output file to <file>.backup first")
	pullCmd.Flags().Bool("system", false, "include system collections (names starting with _)")
}
