package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"steward/internal/cli"
)

var appCheckPortCmd = &cobra.Command{
	Use:   "checkport <port>",
	Short: "Check whether a local TCP port is free",
	Long: `Check whether a local TCP port can be bound. The port is probed and
released immediately, so the answer is only a snapshot.

Examples:
  steward app checkport 8095`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q", args[0])
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := application.Services.Manager.CheckPort(port); err != nil {
			return err
		}
		cli.Success(cmd.OutOrStdout(), "Port %d is available", port)
		return nil
	},
}

func init() {
	appCmd.AddCommand(appCheckPortCmd)
}
