package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/api"
)

var (
	installLabel      string
	installArgs       []string
	installNoAsk      bool
	installNoRollback bool
)

var appInstallCmd = &cobra.Command{
	Use:   "install <app>",
	Short: "Install an app",
	Long: `Install an app from the catalog, a git URL, or a local package directory.

Install arguments are taken from --arg flags first; anything still missing
is prompted for interactively unless --no-ask is given, in which case a
missing required argument fails the install.

If the install script fails, the partial installation is rolled back and
removed unless --no-rollback is given.

Examples:
  steward app install wordpress
  steward app install wordpress --arg domain=blog.example.org --arg path=/
  steward app install https://github.com/example/myapp_package
  steward app install /srv/packages/myapp --label "My app" --no-ask`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		argValues, err := parseKeyValues(installArgs)
		if err != nil {
			return err
		}

		application, cleanup, err := buildApp(!installNoAsk)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := application.Services.Manager.Install(cmd.Context(), api.InstallRequest{
			Ref:                 args[0],
			Label:               installLabel,
			Args:                argValues,
			NoRollbackOnFailure: installNoRollback,
		})

		name := args[0]
		if result != nil && result.Instance != "" {
			name = result.Instance
		}
		return reportResult(cmd.OutOrStdout(), result, err, "Installed %s", name)
	},
}

func init() {
	appCmd.AddCommand(appInstallCmd)
	appInstallCmd.Flags().StringVar(&installLabel, "label", "", "User-visible label for the new instance")
	appInstallCmd.Flags().StringArrayVar(&installArgs, "arg", nil, "Install argument as key=value (repeatable)")
	appInstallCmd.Flags().BoolVar(&installNoAsk, "no-ask", false, "Never prompt; fail on missing required arguments")
	appInstallCmd.Flags().BoolVar(&installNoRollback, "no-rollback", false, "Keep the broken instance on install failure for debugging")
}
