package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"steward/internal/api"
	"steward/internal/arguments"
)

var (
	changeURLDomain string
	changeURLPath   string
)

var appChangeURLCmd = &cobra.Command{
	Use:     "change-url <instance>",
	Aliases: []string{"changeurl"},
	Short:   "Move an instance to a new domain or path",
	Long: `Move an installed instance to a new domain and/or URL path. The new
location must be free, the packaged change-url script relocates the app,
and the gateway configuration is updated to match.

Examples:
  steward app change-url wordpress --domain blog.example.org
  steward app change-url wordpress --domain example.org --path /blog`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if changeURLDomain == "" && changeURLPath == "" {
			return fmt.Errorf("at least one of --domain or --path is required")
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		// An omitted flag keeps that half of the current location.
		domain, path := changeURLDomain, changeURLPath
		if domain == "" || path == "" {
			inst, err := application.Services.Manager.Info(args[0])
			if err != nil {
				return err
			}
			if domain == "" {
				domain = inst.Settings.Domain()
			}
			if path == "" {
				path = inst.Settings.Path()
			}
		}
		domain = arguments.NormalizeDomain(domain)
		path = arguments.NormalizePath(path)

		result, err := application.Services.Manager.ChangeURL(cmd.Context(), api.ChangeURLRequest{
			Instance: args[0],
			Domain:   domain,
			Path:     path,
		})
		return reportResult(cmd.OutOrStdout(), result, err, "Moved %s to https://%s%s", args[0], domain, path)
	},
}

func init() {
	appCmd.AddCommand(appChangeURLCmd)
	appChangeURLCmd.Flags().StringVar(&changeURLDomain, "domain", "", "New domain for the instance")
	appChangeURLCmd.Flags().StringVar(&changeURLPath, "path", "", "New URL path for the instance")
}
