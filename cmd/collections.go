package cmd

import (
	"github.com/Rana718/pbinit/internal/provision"
	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Create the declared collections only",
	Long: `Create every declared collection that does not exist yet.
Collections that already exist are reported and left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPhases(cmd, provision.Phases{Collections: true})
	},
}

func init() {
	addStrictFlag(collectionsCmd)
	rootCmd.AddCommand(collectionsCmd)
}
