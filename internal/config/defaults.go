package config

const (
	// DefaultCatalogURL is the public app catalog.
	DefaultCatalogURL = "https://apps.steward.dev/catalog.yml"

	// DefaultGatewayConf is where the SSO gateway reads its conf.
	DefaultGatewayConf = "/etc/ssowat/conf.json"

	// DefaultGatewayUnit is the systemd unit serving the gateway.
	DefaultGatewayUnit = "ssowat.service"
)

// Default returns the configuration used when config.yaml is absent.
func Default() Config {
	return Config{
		DataDir:    "/var/lib/steward/apps",
		HooksDir:   "/var/lib/steward/hooks",
		StagingDir: "/var/lib/steward/staging",
		LogLevel:   "info",
		Catalog: CatalogConfig{
			URL: DefaultCatalogURL,
		},
		Gateway: GatewayConfig{
			ConfPath: DefaultGatewayConf,
			Unit:     DefaultGatewayUnit,
		},
		Directory: DirectoryConfig{
			Dir: "/etc/steward",
		},
		Password: PasswordConfig{
			MinLength:  8,
			MinClasses: 2,
		},
	}
}
