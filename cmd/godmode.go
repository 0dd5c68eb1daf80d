package cmd

import (
	"github.com/Rana718/pbinit/internal/provision"
	"github.com/spf13/cobra"
)

var godmodeCmd = &cobra.Command{
	Use:   "godmode",
	Short: "Seed god mode users only",
	Long: `Make sure every email in god_mode.emails owns an account with
isGodMode=true and role "god". Missing accounts are created with the shared
temporary password, which must be rotated immediately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPhases(cmd, provision.Phases{GodMode: true})
	},
}

func init() {
	addStrictFlag(godmodeCmd)
	rootCmd.AddCommand(godmodeCmd)
}
