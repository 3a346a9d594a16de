package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"steward/internal/cli"
	"steward/internal/operations"
)

var (
	operationsListOutput cli.OutputFlags
	operationsListLimit  int
	operationsShowFormat string
)

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "Inspect past lifecycle operations",
	Long: `Every lifecycle operation is journaled: what ran, on which instance,
how its state advanced, and how it ended. The journal is the first stop
when an install or upgrade went wrong.`,
}

var operationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.ValidateOutputFormat(operationsListOutput.Format); err != nil {
			return err
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := application.Services.Journal.Recent(operationsListLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cli.OutputFormat(operationsListOutput.Format) {
		case cli.OutputFormatJSON:
			return cli.OutputJSON(out, records)
		case cli.OutputFormatYAML:
			return cli.OutputYAML(out, records)
		}

		t := cli.NewTable(out)
		if !operationsListOutput.NoHeaders {
			t.AppendHeader([]interface{}{"ID", "OPERATION", "INSTANCE", "STARTED", "RESULT"})
		}
		for _, record := range records {
			t.AppendRow([]interface{}{
				record.ID,
				record.Operation,
				record.Instance,
				record.Started.Format(time.RFC3339),
				operationResult(record),
			})
		}
		t.Render()
		return nil
	},
}

var operationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one operation record in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if operationsShowFormat != "yaml" && operationsShowFormat != "json" {
			return fmt.Errorf("unsupported output format: %q (valid: yaml, json)", operationsShowFormat)
		}

		application, cleanup, err := buildApp(false)
		if err != nil {
			return err
		}
		defer cleanup()

		record, err := application.Services.Journal.Get(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if operationsShowFormat == "json" {
			return cli.OutputJSON(out, record)
		}
		return cli.OutputYAML(out, record)
	},
}

// operationResult renders the record's end state for the listing.
func operationResult(record operations.Record) string {
	switch {
	case record.Ended == nil:
		return "running"
	case record.Success:
		return "success"
	case record.Error != "":
		return "failed: " + cli.Truncate(record.Error, 40)
	default:
		return "failed"
	}
}

func init() {
	rootCmd.AddCommand(operationsCmd)
	operationsCmd.AddCommand(operationsListCmd)
	operationsCmd.AddCommand(operationsShowCmd)
	cli.RegisterOutputFlags(operationsListCmd, &operationsListOutput)
	operationsListCmd.Flags().IntVar(&operationsListLimit, "limit", 10, "Maximum number of records to list")
	operationsShowCmd.Flags().StringVarP(&operationsShowFormat, "output", "o", "yaml", "Output format (yaml, json)")
}
