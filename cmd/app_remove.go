package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"steward/internal/api"
	"steward/internal/cli"
)

var removePurge bool

var appRemoveCmd = &cobra.Command{
	Use:   "remove <instance>",
	Short: "Remove an installed instance",
	Long: `Remove an installed instance. The packaged remove script runs first,
then the instance directory, its hooks, and its gateway permission are
dropped. Removal keeps going past individual failures so a broken app
cannot make itself unremovable.

Examples:
  steward app remove wordpress
  steward app remove wordpress__2 --purge`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		var result *api.OperationResult
		err = cli.RunWithProgress(rootSilent, fmt.Sprintf("Removing %s", args[0]), func() error {
			var runErr error
			result, runErr = application.Services.Manager.Remove(cmd.Context(), api.RemoveRequest{
				Instance: args[0],
				Purge:    removePurge,
			})
			return runErr
		})
		return reportResult(cmd.OutOrStdout(), result, err, "Removed %s", args[0])
	},
}

func init() {
	appCmd.AddCommand(appRemoveCmd)
	appRemoveCmd.Flags().BoolVar(&removePurge, "purge", false, "Also remove the app's data")
}
