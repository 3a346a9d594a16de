package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"steward/internal/api"
	"steward/internal/app"
	"steward/internal/cli"
)

// buildApp bootstraps the application from the persistent flags. When
// interactive is true a console asker is attached so operations can prompt
// for missing arguments; callers must invoke the returned cleanup.
func buildApp(interactive bool) (*app.Application, func(), error) {
	cfg := app.NewConfig(rootConfigPath, rootLogLevel, rootSilent, rootCmd.Version)

	cleanup := func() {}
	if interactive {
		asker, err := cli.NewConsoleAsker()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open terminal for prompts: %w", err)
		}
		cfg.Asker = asker
		cleanup = func() { asker.Close() }
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return application, cleanup, nil
}

// parseKeyValues parses repeated key=value flags into an argument map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}

// settingKeys returns the setting names in stable order.
func settingKeys(settings api.InstanceSettings) []string {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// reportResult prints the warnings collected during an operation and, on
// success, a confirmation line. The error is returned unchanged so the root
// command can map it to an exit code.
func reportResult(out io.Writer, result *api.OperationResult, err error, format string, args ...interface{}) error {
	if result != nil {
		cli.PrintWarnings(out, result.Warnings)
	}
	if err != nil {
		return err
	}
	cli.Success(out, format, args...)
	return nil
}
