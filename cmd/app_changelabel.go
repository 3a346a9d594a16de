package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/cli"
)

var appChangeLabelCmd = &cobra.Command{
	Use:     "change-label <instance> <label>",
	Aliases: []string{"changelabel"},
	Short:   "Rename the user-visible label of an instance",
	Long: `Rename the label an instance is shown under, for example on the SSO
portal. The instance name itself never changes.

Examples:
  steward app change-label wordpress "Team blog"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := application.Services.Manager.ChangeLabel(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		cli.Success(cmd.OutOrStdout(), "Relabeled %s to %q", args[0], args[1])
		return nil
	},
}

func init() {
	appCmd.AddCommand(appChangeLabelCmd)
}
