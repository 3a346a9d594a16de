package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a table.
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML.
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidateOutputFormat validates that the given format string is a supported
// output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// OutputJSON marshals data to indented JSON and writes it.
func OutputJSON(out io.Writer, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format as JSON: %w", err)
	}
	fmt.Fprintln(out, string(jsonData))
	return nil
}

// OutputYAML marshals data to YAML and writes it.
func OutputYAML(out io.Writer, data interface{}) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to format as YAML: %w", err)
	}
	fmt.Fprint(out, string(yamlData))
	return nil
}
