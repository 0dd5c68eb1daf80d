package cmd

import (
	"fmt"

	"github.com/Rana718/pbinit/internal/export"
	"github.com/Rana718/pbinit/internal/schema"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the declared collections to a file",
	Long: `
Write the declared collection set (built-in, or schema.file when set) to a
JSON or YAML document that can be edited and used as schema.file.

Examples:
  pbinit export
  pbinit export --format yaml
  pbinit export --out collections.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		defs, err := schema.Load(cfg.Schema.File)
		if err != nil {
			return fmt.Errorf("failed to load collections: %w", err)
		}

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		path, err := export.PerformExport(defs, out, format)
		if err != nil {
			return fmt.Errorf("failed to export collections: %w", err)
		}

		if path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Export completed: %s (%d collections)\n", path, len(defs))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No export created (no collections declared)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "", "output format: json or yaml (default from --out extension, else json)")
	exportCmd.Flags().String("out", "", "output file or directory (default "+export.DefaultDir+"/)")
}
