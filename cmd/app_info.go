package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"steward/internal/api"
	"steward/internal/cli"
)

var (
	infoOutput cli.OutputFlags
	infoFull   bool
)

// appInfoView is the serializable shape of one instance's details.
type appInfoView struct {
	Name        string               `json:"name" yaml:"name"`
	AppID       string               `json:"app_id" yaml:"app_id"`
	Number      int                  `json:"number" yaml:"number"`
	Label       string               `json:"label,omitempty" yaml:"label,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string               `json:"version,omitempty" yaml:"version,omitempty"`
	URL         string               `json:"url,omitempty" yaml:"url,omitempty"`
	InstalledAt time.Time            `json:"installed_at" yaml:"installed_at"`
	UpgradedAt  *time.Time           `json:"upgraded_at,omitempty" yaml:"upgraded_at,omitempty"`
	Origin      api.Remote           `json:"origin" yaml:"origin"`
	Settings    api.InstanceSettings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

var appInfoCmd = &cobra.Command{
	Use:   "info <instance>",
	Short: "Show details of an installed instance",
	Long: `Show the details of one installed instance: its app, version, label,
URL, and provenance. --full additionally includes every stored setting.

Examples:
  steward app info wordpress
  steward app info wordpress --full -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(infoOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		inst, err := application.Services.Manager.Info(args[0])
		if err != nil {
			return err
		}

		view := appInfoView{
			Name:        inst.Name,
			AppID:       inst.AppID,
			Number:      inst.Number,
			Label:       inst.Settings.Label(),
			InstalledAt: inst.Status.InstalledAt,
			Origin:      inst.Status.Remote,
		}
		if inst.Manifest != nil {
			view.Description = inst.Manifest.Description
			view.Version = inst.Manifest.Version
		}
		if domain := inst.Settings.Domain(); domain != "" {
			view.URL = "https://" + domain + inst.Settings.Path()
		}
		if !inst.Status.UpgradedAt.IsZero() {
			upgraded := inst.Status.UpgradedAt
			view.UpgradedAt = &upgraded
		}
		if infoFull {
			view.Settings = inst.Settings
		}

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(infoOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, view)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, view)
		}

		fmt.Fprintf(out, "Name:        %s\n", view.Name)
		fmt.Fprintf(out, "App:         %s\n", view.AppID)
		if view.Label != "" {
			fmt.Fprintf(out, "Label:       %s\n", view.Label)
		}
		if view.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", view.Description)
		}
		if view.Version != "" {
			fmt.Fprintf(out, "Version:     %s\n", view.Version)
		}
		if view.URL != "" {
			fmt.Fprintf(out, "URL:         %s\n", view.URL)
		}
		fmt.Fprintf(out, "Installed:   %s\n", view.InstalledAt.Format(time.RFC3339))
		if view.UpgradedAt != nil {
			fmt.Fprintf(out, "Upgraded:    %s\n", view.UpgradedAt.Format(time.RFC3339))
		}
		if view.Origin.Type != "" {
			origin := view.Origin.URL
			if origin == "" {
				origin = view.Origin.Path
			}
			fmt.Fprintf(out, "Origin:      %s (%s)\n", origin, view.Origin.Type)
		}
		if infoFull {
			fmt.Fprintln(out, "Settings:")
			for _, key := range settingKeys(inst.Settings) {
				fmt.Fprintf(out, "  %s: %v\n", key, inst.Settings[key])
			}
		}
		return nil
	},
}

func init() {
	appCmd.AddCommand(appInfoCmd)
	cli.RegisterOutputFlags(appInfoCmd, &infoOutput)
	appInfoCmd.Flags().BoolVar(&infoFull, "full", false, "Include every stored setting")
}
