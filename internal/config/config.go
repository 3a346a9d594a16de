package config

// Config is the top-level platform configuration for steward. Zero values
// fall back to the documented defaults, so a partial config.yaml only has
// to name what it changes.
type Config struct {
	// DataDir holds one directory per installed instance plus the
	// permission registry and the operation journal.
	DataDir string `yaml:"dataDir,omitempty"`

	// HooksDir is where app-declared hooks are registered.
	HooksDir string `yaml:"hooksDir,omitempty"`

	// StagingDir receives fetched app trees before they are imported.
	StagingDir string `yaml:"stagingDir,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`

	Platform  PlatformConfig  `yaml:"platform,omitempty"`
	Catalog   CatalogConfig   `yaml:"catalog,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Directory DirectoryConfig `yaml:"directory,omitempty"`
	Password  PasswordConfig  `yaml:"password,omitempty"`
}

// PlatformConfig describes the platform itself for requirement checks.
type PlatformConfig struct {
	// Version satisfies the "steward" entry of manifest requirements.
	// Empty means the build version of the running binary.
	Version string `yaml:"version,omitempty"`

	// Dependencies maps further installed dependency names to versions
	// (interpreters, databases) for the requirements check.
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
}

// CatalogConfig points at the remote app catalog.
type CatalogConfig struct {
	// URL serves the catalog document. The disk cache lives under DataDir.
	URL string `yaml:"url,omitempty"`
}

// GatewayConfig describes the SSO gateway this host runs.
type GatewayConfig struct {
	// ConfPath is the gateway conf file steward renders on sync.
	ConfPath string `yaml:"confPath,omitempty"`

	// Unit is the systemd unit reloaded after a conf write.
	Unit string `yaml:"unit,omitempty"`
}

// DirectoryConfig locates the host identity files.
type DirectoryConfig struct {
	// Dir contains domains.yml and users.yml.
	Dir string `yaml:"dir,omitempty"`

	// Domains are served by this host in addition to domains.yml.
	Domains []string `yaml:"domains,omitempty"`
}

// PasswordConfig tunes the password policy applied to password arguments.
type PasswordConfig struct {
	MinLength  int `yaml:"minLength,omitempty"`
	MinClasses int `yaml:"minClasses,omitempty"`
}

// Validate collects every problem with the configuration instead of
// stopping at the first.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.DataDir == "" {
		errs.Add("dataDir", "is required")
	}
	if c.HooksDir == "" {
		errs.Add("hooksDir", "is required")
	}
	if err := ValidateOneOf("logLevel", c.LogLevel, []string{"debug", "info", "warn", "error"}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.Gateway.ConfPath == "" {
		errs.Add("gateway.confPath", "is required")
	}
	if c.Gateway.Unit == "" {
		errs.Add("gateway.unit", "is required")
	}
	if c.Password.MinLength < 1 {
		errs.Add("password.minLength", "must be positive", c.Password.MinLength)
	}
	if c.Password.MinClasses < 0 || c.Password.MinClasses > 4 {
		errs.Add("password.minClasses", "must be between 0 and 4", c.Password.MinClasses)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
