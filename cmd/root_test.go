package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"steward/internal/api"
)

func TestSetVersion(t *testing.T) {
	// Test setting version
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
}

func TestRootCommand(t *testing.T) {
	// Test root command properties
	if rootCmd.Use != "steward" {
		t.Errorf("Expected Use to be 'steward', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	// Create a new command to test version template
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}

	// Set the same version template as in Execute()
	testCmd.SetVersionTemplate(`{{printf "steward version %s\n" .Version}}`)

	// Capture output
	var buf bytes.Buffer
	testCmd.SetOut(&buf)

	// Execute version command
	testCmd.SetArgs([]string{"--version"})
	err := testCmd.Execute()
	if err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	output := buf.String()
	expected := "steward version 1.0.0\n"
	if output != expected {
		t.Errorf("Expected version output %q, got %q", expected, output)
	}
}

func TestSubcommands(t *testing.T) {
	// Test that subcommands are added
	commands := rootCmd.Commands()

	expectedCommands := []string{"version", "self-update", "app", "catalog", "operations", "watch"}
	foundCommands := make(map[string]bool)

	for _, cmd := range commands {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestAppSubcommands(t *testing.T) {
	expectedCommands := []string{
		"install", "upgrade", "remove", "change-url", "list", "info", "map",
		"setting", "change-label", "checkurl", "checkport", "action", "config",
		"ssowatconf", "register-url",
	}
	foundCommands := make(map[string]bool)

	for _, cmd := range appCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("Expected app subcommand %s to be registered", expected)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config-path", "log-level", "silent"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag --%s to be registered", name)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "general error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
		{
			name: "instance not found",
			err:  api.NewInstanceNotFoundError("wordpress"),
			want: ExitCodeNotFound,
		},
		{
			name: "wrapped not found",
			err:  fmt.Errorf("loading: %w", api.NewCatalogEntryNotFoundError("ghost")),
			want: ExitCodeNotFound,
		},
		{
			name: "already installed",
			err:  &api.AlreadyInstalledError{App: "wordpress"},
			want: ExitCodeConflict,
		},
		{
			name: "location conflict",
			err:  &api.LocationConflictError{Domain: "example.org", Path: "/"},
			want: ExitCodeConflict,
		},
		{
			name: "argument required",
			err:  &api.ArgumentRequiredError{Name: "domain"},
			want: ExitCodeInvalidInput,
		},
		{
			name: "argument invalid",
			err:  &api.ArgumentInvalidError{Name: "path", Reason: "bad"},
			want: ExitCodeInvalidInput,
		},
		{
			name: "interrupted",
			err:  &api.InterruptedError{Operation: "install", Instance: "wordpress"},
			want: ExitCodeInterrupted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRootCommandHelp(t *testing.T) {
	// Test that help can be generated without error
	var buf bytes.Buffer

	// Create a new command to avoid affecting the global one
	testRootCmd := &cobra.Command{
		Use:   "steward",
		Short: "Install and manage self-hosted apps",
		Long: `steward installs, upgrades, and removes packaged apps on a single
host. It fetches app packages, resolves their install arguments, runs
the packaged lifecycle scripts, and keeps the SSO gateway configuration
in sync with where every app is served.`,
		SilenceUsage: true,
	}

	testRootCmd.SetOut(&buf)
	testRootCmd.SetArgs([]string{"--help"})

	err := testRootCmd.Execute()
	if err != nil {
		t.Fatalf("Error executing help command: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "steward") {
		t.Errorf("Help output should contain 'steward'. Got: %q", output)
	}

	if !strings.Contains(output, "lifecycle scripts") {
		t.Errorf("Help output should contain the long description. Got: %q", output)
	}
}
