package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/arguments"
	"steward/internal/cli"
)

var appRegisterURLCmd = &cobra.Command{
	Use:   "register-url <instance> <domain> [path]",
	Short: "Bind a URL to an instance's permission without moving the app",
	Long: `Bind a domain and path to an installed instance's gateway permission
and resynchronize the gateway. Unlike change-url this runs no app script
and moves nothing on disk; it only repairs the permission record, for
example after restoring a gateway conf from backup.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		// The existence check runs first so a typoed instance reports
		// not-found instead of a missing permission.
		if _, err := application.Services.Manager.Info(args[0]); err != nil {
			return err
		}

		domain := arguments.NormalizeDomain(args[1])
		path := "/"
		if len(args) == 3 {
			path = args[2]
		}
		path = arguments.NormalizePath(path)

		permissions := application.Services.Permissions
		if err := permissions.UpdatePermissionURL(cmd.Context(), args[0], domain+path); err != nil {
			return err
		}
		if err := permissions.SyncToGateway(cmd.Context()); err != nil {
			return err
		}
		cli.Success(cmd.OutOrStdout(), "Bound %s to %s%s", args[0], domain, path)
		return nil
	},
}

func init() {
	appCmd.AddCommand(appRegisterURLCmd)
}
