package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"steward/internal/cli"
)

var (
	mapOutput   cli.OutputFlags
	mapInstance string
)

var appMapCmd = &cobra.Command{
	Use:   "map",
	Short: "Show which instance serves which URL",
	Long: `Show the served URL space: every domain and path claimed by an
installed instance. --app restricts the map to one instance.

Examples:
  steward app map
  steward app map --app wordpress -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(mapOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		routes, err := application.Services.Manager.RoutingMap(mapInstance)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(mapOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, routes)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, routes)
		}

		t := cli.NewTable(out)
		if !mapOutput.NoHeaders {
			t.AppendHeader([]interface{}{"DOMAIN", "PATH", "INSTANCE"})
		}
		domains := make([]string, 0, len(routes))
		for domain := range routes {
			domains = append(domains, domain)
		}
		sort.Strings(domains)
		for _, domain := range domains {
			paths := make([]string, 0, len(routes[domain]))
			for path := range routes[domain] {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			for _, path := range paths {
				t.AppendRow([]interface{}{domain, path, routes[domain][path]})
			}
		}
		t.Render()
		return nil
	},
}

func init() {
	appCmd.AddCommand(appMapCmd)
	cli.RegisterOutputFlags(appMapCmd, &mapOutput)
	appMapCmd.Flags().StringVar(&mapInstance, "app", "", "Restrict the map to this instance")
}
