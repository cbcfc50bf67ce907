package cli

import (
	"github.com/spf13/cobra"

	"github.com/nexus-erp/nexusctl/internal/ui"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(nil)
		if err != nil {
			return err
		}
		rt.guard.Invalidate("logout")
		ui.PrintSuccess(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
