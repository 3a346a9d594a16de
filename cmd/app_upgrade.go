package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"steward/internal/api"
	"steward/internal/cli"
)

var (
	upgradeRef   string
	upgradeArgs  []string
	upgradeForce bool
	upgradeNoAsk bool
)

var appUpgradeCmd = &cobra.Command{
	Use:   "upgrade [instance...]",
	Short: "Upgrade installed instances",
	Long: `Upgrade one or more installed instances. With no arguments every
installed instance is considered.

Each instance is re-fetched from its recorded origin and upgraded when the
packaged version is newer. Instances already up to date are skipped unless
--force is given. A batch only fails when nothing could be upgraded.

--from upgrades a single instance from an explicit package location
instead of its recorded origin, for example to test an unreleased
package.

Examples:
  steward app upgrade
  steward app upgrade wordpress wordpress__2
  steward app upgrade wordpress --force
  steward app upgrade wordpress --from /srv/packages/wordpress`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if upgradeRef != "" && len(args) != 1 {
			return fmt.Errorf("--from requires exactly one instance")
		}
		argValues, err := parseKeyValues(upgradeArgs)
		if err != nil {
			return err
		}

		application, cleanup, err := buildApp(!upgradeNoAsk)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := application.Services.Manager.Upgrade(cmd.Context(), api.UpgradeRequest{
			Instances: args,
			Ref:       upgradeRef,
			Args:      argValues,
			Force:     upgradeForce,
		})

		out := cmd.OutOrStdout()
		if result != nil {
			for _, report := range result.Reports {
				switch report.Outcome {
				case api.UpgradeDone:
					cli.Success(out, "Upgraded %s", report.Instance)
				case api.UpgradeSkipped:
					cli.Notice(out, "Skipped %s: %s", report.Instance, report.Reason)
				case api.UpgradeFailed:
					cli.Failure(out, "Failed %s: %s", report.Instance, report.Reason)
				}
			}
		}
		return err
	},
}

func init() {
	appCmd.AddCommand(appUpgradeCmd)
	appUpgradeCmd.Flags().StringVar(&upgradeRef, "from", "", "Upgrade from this package location instead of the recorded origin")
	appUpgradeCmd.Flags().StringArrayVar(&upgradeArgs, "arg", nil, "Upgrade argument as key=value (repeatable)")
	appUpgradeCmd.Flags().BoolVar(&upgradeForce, "force", false, "Upgrade even when the packaged version is not newer")
	appUpgradeCmd.Flags().BoolVar(&upgradeNoAsk, "no-ask", false, "Never prompt; fail on missing required arguments")
}
