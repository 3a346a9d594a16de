package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"steward/internal/api"
	"steward/internal/cli"
)

var (
	configShowOutput cli.OutputFlags
	configApplyArgs  []string
)

var appConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change an app's configuration panel",
	Long: `Apps may declare a configuration panel: tunables that can be changed
after installation without reinstalling. The panel's current values are
read from the instance settings; changes run through the app's own
config script.`,
}

var appConfigShowCmd = &cobra.Command{
	Use:   "show <instance>",
	Short: "Show the configuration panel and its current values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(configShowOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := application.Services.Manager.ShowConfig(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(configShowOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, state)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, state)
		}

		t := cli.NewTable(out)
		if !configShowOutput.NoHeaders {
			t.AppendHeader([]interface{}{"SECTION", "OPTION", "VALUE"})
		}
		for _, section := range state.Panel.Sections {
			for _, option := range section.Options {
				value := state.Values[option.Name]
				if option.Kind == api.ArgumentPassword && value != "" {
					value = "********"
				}
				t.AppendRow([]interface{}{section.ID, option.Name, value})
			}
		}
		t.Render()
		return nil
	},
}

var appConfigApplyCmd = &cobra.Command{
	Use:   "apply <instance>",
	Short: "Change configuration panel values",
	Long: `Apply new values to an instance's configuration panel. Only options
the panel declares can be set; the app's config script validates and
applies them.

Examples:
  steward app config apply wordpress --arg theme=dark
  steward app config apply wordpress --arg cache_enabled=true --arg cache_ttl=300`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseKeyValues(configApplyArgs)
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return fmt.Errorf("nothing to apply, pass at least one --arg key=value")
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := application.Services.Manager.ApplyConfig(cmd.Context(), api.ConfigApplyRequest{
			Instance: args[0],
			Values:   values,
		})
		return reportResult(cmd.OutOrStdout(), result, err, "Applied %d value(s) to %s", len(values), args[0])
	},
}

func init() {
	appCmd.AddCommand(appConfigCmd)
	appConfigCmd.AddCommand(appConfigShowCmd)
	appConfigCmd.AddCommand(appConfigApplyCmd)
	cli.RegisterOutputFlags(appConfigShowCmd, &configShowOutput)
	appConfigApplyCmd.Flags().StringArrayVar(&configApplyArgs, "arg", nil, "Panel value as key=value (repeatable)")
}
