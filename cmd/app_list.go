package cmd

import (
	"github.com/spf13/cobra"

	"steward/internal/cli"
	"steward/internal/lifecycle"
)

var listOutput cli.OutputFlags

var appListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed instances",
	Long: `List every installed instance with its app, version, label, and the
URL it is served under.

Examples:
  steward app list
  steward app list -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(listOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		instances, err := application.Services.Manager.ListInstances()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(listOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, instances)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, instances)
		}

		t := cli.NewTable(out)
		if !listOutput.NoHeaders {
			t.AppendHeader([]interface{}{"NAME", "APP", "VERSION", "LABEL", "URL"})
		}
		for _, inst := range instances {
			t.AppendRow([]interface{}{
				inst.Name,
				inst.AppID,
				inst.Version,
				cli.TruncateLabel(inst.Label),
				instanceURL(inst),
			})
		}
		t.Render()
		return nil
	},
}

// instanceURL renders the served location, or "" for an app without a web
// surface.
func instanceURL(inst lifecycle.InstanceSummary) string {
	if inst.Domain == "" {
		return ""
	}
	return "https://" + inst.Domain + inst.Path
}

func init() {
	appCmd.AddCommand(appListCmd)
	cli.RegisterOutputFlags(appListCmd, &listOutput)
}
