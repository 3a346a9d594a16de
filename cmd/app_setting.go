package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	settingValue  string
	settingDelete bool
)

var appSettingCmd = &cobra.Command{
	Use:   "setting <instance> <key>",
	Short: "Read, write, or delete an instance setting",
	Long: `Read, write, or delete one setting of an installed instance.

Without flags the value is printed raw so scripts can consume it; a
missing key prints nothing. --value writes the setting, --delete removes
it. Settings steward manages itself, such as the bound domain, should be
changed through the dedicated verbs instead.

Examples:
  steward app setting wordpress db_name
  steward app setting wordpress admin_email -v admin@example.org
  steward app setting wordpress stale_key -d`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Changed instead of != "" so an explicit empty value can be stored.
		setRequested := cmd.Flags().Changed("value")
		if settingDelete && setRequested {
			return fmt.Errorf("--value and --delete are mutually exclusive")
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		manager := application.Services.Manager
		instance, key := args[0], args[1]

		switch {
		case settingDelete:
			return manager.DeleteSetting(instance, key)
		case setRequested:
			return manager.SetSetting(instance, key, settingValue)
		default:
			value, err := manager.GetSetting(instance, key)
			if err != nil {
				return err
			}
			if value != "" {
				fmt.Fprintln(cmd.OutOrStdout(), value)
			}
			return nil
		}
	},
}

func init() {
	appCmd.AddCommand(appSettingCmd)
	appSettingCmd.Flags().StringVarP(&settingValue, "value", "v", "", "Write this value to the setting")
	appSettingCmd.Flags().BoolVarP(&settingDelete, "delete", "d", false, "Delete the setting")
}
