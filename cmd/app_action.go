package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/api"
	"steward/internal/cli"
)

var (
	actionListOutput cli.OutputFlags
	actionRunArgs    []string
	actionRunNoAsk   bool
)

var appActionCmd = &cobra.Command{
	Use:   "action",
	Short: "List and run app-defined actions",
	Long: `Apps may package maintenance actions beyond the standard lifecycle,
such as resetting an admin password or rebuilding an index. Actions are
declared by the app and executed through its own scripts.`,
}

var appActionListCmd = &cobra.Command{
	Use:   "list <instance>",
	Short: "List the actions an instance offers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(actionListOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		actions, err := application.Services.Manager.ListActions(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(actionListOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, actions)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, actions)
		}

		t := cli.NewTable(out)
		if !actionListOutput.NoHeaders {
			t.AppendHeader([]interface{}{"ACTION", "NAME", "DESCRIPTION"})
		}
		for _, action := range actions {
			t.AppendRow([]interface{}{action.ID, action.Name, cli.Truncate(action.Description, 60)})
		}
		t.Render()
		return nil
	},
}

var appActionRunCmd = &cobra.Command{
	Use:   "run <instance> <action>",
	Short: "Run an app-defined action",
	Long: `Run one of the actions an instance declares. Declared action arguments
are resolved like install arguments: --arg flags first, then interactive
prompts unless --no-ask is given.

Examples:
  steward app action run wordpress reset_admin_password
  steward app action run wordpress reindex --arg scope=posts --no-ask`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		argValues, err := parseKeyValues(actionRunArgs)
		if err != nil {
			return err
		}

		application, cleanup, err := buildApp(!actionRunNoAsk)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := application.Services.Manager.RunAction(cmd.Context(), api.ActionRequest{
			Instance: args[0],
			Action:   args[1],
			Args:     argValues,
		})
		return reportResult(cmd.OutOrStdout(), result, err, "Ran %s on %s", args[1], args[0])
	},
}

func init() {
	appCmd.AddCommand(appActionCmd)
	appActionCmd.AddCommand(appActionListCmd)
	appActionCmd.AddCommand(appActionRunCmd)
	cli.RegisterOutputFlags(appActionListCmd, &actionListOutput)
	appActionRunCmd.Flags().StringArrayVar(&actionRunArgs, "arg", nil, "Action argument as key=value (repeatable)")
	appActionRunCmd.Flags().BoolVar(&actionRunNoAsk, "no-ask", false, "Never prompt; fail on missing required arguments")
}
