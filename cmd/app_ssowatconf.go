package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/cli"
)

var appSSOwatConfCmd = &cobra.Command{
	Use:   "ssowatconf",
	Short: "Regenerate the SSO gateway configuration",
	Long: `Regenerate the SSO gateway configuration from the recorded app
permissions and reload the gateway. Lifecycle operations do this on
their own; the command exists to recover after editing permissions or
gateway files by hand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := application.Services.Permissions.SyncToGateway(cmd.Context()); err != nil {
			return err
		}
		cli.Success(cmd.OutOrStdout(), "Gateway configuration regenerated")
		return nil
	},
}

func init() {
	appCmd.AddCommand(appSSOwatConfCmd)
}
