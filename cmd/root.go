package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"steward/internal/api"
)

// Exit codes for CLI commands. Scripts branch on these, so the mapping in
// getExitCode is part of the CLI contract.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (script failure, I/O, rollback).
	ExitCodeError = 1
	// ExitCodeNotFound indicates a missing instance, app, or catalog entry.
	ExitCodeNotFound = 2
	// ExitCodeConflict indicates a state conflict: the app is already
	// installed, or the requested domain/path is taken.
	ExitCodeConflict = 3
	// ExitCodeInvalidInput indicates rejected input: bad arguments, an
	// invalid manifest, or unmet platform requirements.
	ExitCodeInvalidInput = 4
	// ExitCodeInterrupted indicates the operation was cancelled, following
	// the shell convention of 128+SIGINT.
	ExitCodeInterrupted = 130
)

// Persistent flags shared by every subcommand.
var (
	rootConfigPath string
	rootLogLevel   string
	rootSilent     bool
)

// rootCmd represents the base command for the steward application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Install and manage self-hosted apps",
	Long: `steward installs, upgrades, and removes packaged apps on a single
host. It fetches app packages, resolves their install arguments, runs
the packaged lifecycle scripts, and keeps the SSO gateway configuration
in sync with where every app is served.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It runs the root
// command under a signal-aware context so Ctrl-C cancels the operation in
// flight instead of killing the process mid-write.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "steward version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	switch {
	case api.IsInterrupted(err):
		return ExitCodeInterrupted
	case api.IsNotFound(err):
		return ExitCodeNotFound
	case api.IsAlreadyInstalled(err), api.IsLocationConflict(err):
		return ExitCodeConflict
	case api.IsArgumentRequired(err), api.IsArgumentInvalid(err),
		api.IsManifestInvalid(err), api.IsRequirementsUnmet(err),
		api.IsWeakPassword(err):
		return ExitCodeInvalidInput
	default:
		return ExitCodeError
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config-path", "",
		"Path to the configuration file (default is $HOME/.config/steward/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides the configuration file)")
	rootCmd.PersistentFlags().BoolVar(&rootSilent, "silent", false,
		"Suppress log output (results are still printed)")
}
