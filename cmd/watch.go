package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"steward/internal/instance"
	"steward/pkg/logging"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch installed instances and keep the gateway in sync",
	Long: `Watch the instance directory for changes and resynchronize the SSO
gateway configuration whenever an instance appears, changes its
metadata, or disappears. This keeps the gateway honest when instances
are modified outside of steward, for example from a restored backup.

The command runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		watcher := instance.NewWatcher(application.Config.DataDir, watchDebounce)
		changes := make(chan instance.ChangeEvent, 16)

		if err := watcher.Start(ctx, changes); err != nil {
			return fmt.Errorf("failed to start instance watcher: %w", err)
		}
		defer watcher.Stop()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case event := <-changes:
				fmt.Fprintf(out, "%s %s %s\n",
					event.Timestamp.Format(time.RFC3339), event.Operation, event.Instance)
				if err := application.Services.Permissions.SyncToGateway(ctx); err != nil {
					logging.Error("Watch", err, "Gateway resync after %s of %s failed",
						event.Operation, event.Instance)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond,
		"How long to coalesce rapid changes to one instance")
}
