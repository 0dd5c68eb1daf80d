package cmd

import (
	"github.com/Rana718/pbinit/internal/provision"
	"github.com/spf13/cobra"
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create collections and seed god mode users",
	Long: `Run the full bootstrap against PocketBase:

1. check that the service is reachable
2. log in as admin when credentials are configured
3. create every declared collection that does not exist yet
4. make sure every configured god mode email owns an elevated account

Existing collections and accounts that already hold god mode are not modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPhases(cmd, provision.All)
	},
}

func init() {
	addStrictFlag(applyCmd)
	rootCmd.AddCommand(applyCmd)
}
