package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/arguments"
	"steward/internal/cli"
)

var appCheckURLCmd = &cobra.Command{
	Use:   "checkurl <domain> [path]",
	Short: "Check whether a domain and path are free",
	Long: `Check whether an app could be installed at the given domain and path.
This is a point-in-time query: nothing is reserved.

The command exits non-zero when the location is taken or overlaps an
installed instance.

Examples:
  steward app checkurl blog.example.org
  steward app checkurl example.org /blog`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := application.Services.Manager.CheckURL(cmd.Context(), args[0], path); err != nil {
			return err
		}
		cli.Success(cmd.OutOrStdout(), "%s%s is available",
			arguments.NormalizeDomain(args[0]), arguments.NormalizePath(path))
		return nil
	},
}

func init() {
	appCmd.AddCommand(appCheckURLCmd)
}
