package cli

import (
	"github.com/spf13/cobra"
)

// OutputFlags holds the flag values shared by commands that render query
// results. Commands register them once and pass the struct to the render
// helpers.
type OutputFlags struct {
	// Format specifies the desired output format (table, json, yaml).
	Format string
	// NoHeaders suppresses the header row in table output.
	NoHeaders bool
}

// RegisterOutputFlags registers the common output flags on a command.
//
// The registered flags are:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
func RegisterOutputFlags(cmd *cobra.Command, flags *OutputFlags) {
	cmd.Flags().StringVarP(&flags.Format, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
}
