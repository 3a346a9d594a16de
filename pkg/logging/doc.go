// Package logging provides a structured logging system for steward with
// subsystem tagging and level filtering.
//
// This package implements a logging system built on Go's standard slog package,
// providing consistent logging behavior across all steward subsystems.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// # Usage
//
//	import "steward/pkg/logging"
//
//	// Initialize with Info level logging to stderr
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	// Log messages
//	logging.Info("Lifecycle", "Installing %s", instance)
//	logging.Debug("Script", "env %s=%s", key, value)
//	logging.Warn("Upgrade", "Skipping %s: %s", instance, reason)
//	logging.Error("Gateway", err, "Reload failed")
//
// # Subsystem Organization
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **Bootstrap**: Application initialization and startup
//   - **Config**: Configuration loading and validation
//   - **Lifecycle**: Install/upgrade/remove state machine transitions
//   - **Arguments**: Argument resolution and validation
//   - **Script**: Lifecycle script execution
//   - **Instances**: Durable instance registry operations
//   - **SSO**: Permission registry and gateway synchronization
//   - **Catalog**: Application catalog refresh and lookup
//
// # Thread Safety
//
// The logging system is fully thread-safe: concurrent logging from multiple
// goroutines is safe, and filtered-out messages allocate nothing.
package logging
