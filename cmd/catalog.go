package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"steward/internal/cli"
)

var catalogListOutput cli.OutputFlags

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and refresh the app catalog",
	Long: `The app catalog lists the apps installable by name. It is fetched from
the configured feed and cached locally; installs fall back to the cached
copy when the feed is unreachable.`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the apps in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(catalogListOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		entries, err := application.Services.Catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(catalogListOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, entries)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, entries)
		}

		t := cli.NewTable(out)
		if !catalogListOutput.NoHeaders {
			t.AppendHeader([]interface{}{"APP", "VERSION", "DESCRIPTION"})
		}
		for _, entry := range entries {
			t.AppendRow([]interface{}{entry.ID, entry.Version, cli.Truncate(entry.Description, 60)})
		}
		t.Render()

		if age, err := application.Services.Catalog.CacheAge(); err == nil && !catalogListOutput.NoHeaders {
			fmt.Fprintf(out, "Catalog cached %s ago\n", age.Round(time.Minute))
		}
		return nil
	},
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the latest catalog from the feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		err = cli.RunWithProgress(rootSilent, "Refreshing the app catalog", func() error {
			return application.Services.Catalog.Refresh(cmd.Context())
		})
		if err != nil {
			return err
		}

		entries, err := application.Services.Catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		cli.Success(cmd.OutOrStdout(), "Catalog refreshed, %d apps available", len(entries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
	cli.RegisterOutputFlags(catalogListCmd, &catalogListOutput)
}
