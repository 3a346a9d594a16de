package app

import (
	"fmt"
	"io"
	"os"

	"steward/internal/arguments"
	"steward/internal/config"
	"steward/pkg/logging"
)

// Config carries the command-line level settings into the bootstrap.
type Config struct {
	// ConfigPath is the configuration directory. Empty means the per-user
	// default.
	ConfigPath string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// Silent suppresses all log output.
	Silent bool

	// Version is the build version of the running binary. It backs the
	// platform entry of requirement checks when the configuration does not
	// pin one.
	Version string

	// Asker prompts for missing argument values. Nil disables prompting;
	// resolution then only sees caller values and defaults.
	Asker arguments.Asker
}

// NewConfig creates the bootstrap configuration.
func NewConfig(configPath, logLevel string, silent bool, version string) *Config {
	return &Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Silent:     silent,
		Version:    version,
	}
}

// Application is a bootstrapped steward: configuration plus the wired
// collaborator graph.
type Application struct {
	Config   config.Config
	Services *Services
}

// NewApplication loads the configuration and wires all services.
//
// The bootstrap sequence is: initialize logging from the flag level (the
// configured level applies once the config is read), load config.yaml,
// then build the collaborator graph.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stderr
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(logging.ParseLevel(cfg.LogLevel), logOutput)

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	platformCfg, err := config.Load(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// The flag wins over the file; the file wins over the default.
	if cfg.LogLevel == "" && !cfg.Silent {
		logging.InitForCLI(logging.ParseLevel(platformCfg.LogLevel), logOutput)
	}

	services, err := InitializeServices(platformCfg, cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		Config:   platformCfg,
		Services: services,
	}, nil
}
