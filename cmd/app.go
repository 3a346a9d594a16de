package cmd

import (
	"github.com/spf13/cobra"
)

// appCmd groups every per-app lifecycle verb.
var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Install, upgrade, and manage apps",
	Long: `Manage the lifecycle of installed apps.

An app is installed from the catalog, a git URL, or a local directory.
Each installation becomes an instance: the first keeps the app id as its
name, further ones get a numbered suffix such as wordpress__2.`,
}

func init() {
	rootCmd.AddCommand(appCmd)
}
