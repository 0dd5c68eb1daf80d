package cmd

import (
	"fmt"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which collections and god mode users are in place",
	Long: `Inspect PocketBase without changing anything: list the declared
collections that exist and check every configured god mode email.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()
		ctx = logger.ContextWithLogger(ctx, s.log)

		rep, err := s.prov.Status(ctx)
		if rep != nil {
			s.printer.AdminAuth(rep.AdminSkipped, rep.AdminErr)
		}
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		s.printer.Status(s.cfg.URL, rep.Collections, rep.Identities)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
