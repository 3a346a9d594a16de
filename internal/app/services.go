package app

import (
	"fmt"

	"steward/internal/catalog"
	"steward/internal/config"
	"steward/internal/directory"
	"steward/internal/hooks"
	"steward/internal/instance"
	"steward/internal/lifecycle"
	"steward/internal/operations"
	"steward/internal/script"
	"steward/internal/source"
	"steward/internal/sso"
)

// Services is the wired collaborator graph every command works against.
type Services struct {
	// Manager runs the lifecycle operations.
	Manager *lifecycle.Manager

	// Repository is the durable instance store under the data dir.
	Repository *instance.Store

	// Catalog resolves app ids against the remote catalog.
	Catalog *catalog.Manager

	// Permissions is the SSO permission registry and gateway conf writer.
	Permissions *sso.Registry

	// Directory answers domain and user questions.
	Directory *directory.Directory

	// Journal records lifecycle operations.
	Journal *operations.Journal
}

// InitializeServices builds the collaborator graph from the platform
// configuration.
//
// Construction order follows the dependencies: stores and probes first,
// then the acquisition chain, the manager last. The script gateway probe
// fails fast when bash is missing so operations do not get halfway before
// discovering it.
func InitializeServices(platformCfg config.Config, cfg *Config) (*Services, error) {
	repo := instance.NewStore(platformCfg.DataDir)

	gateway, err := script.NewGateway()
	if err != nil {
		return nil, fmt.Errorf("script gateway unavailable: %w", err)
	}

	reloader := sso.NewSystemdReloader(platformCfg.Gateway.Unit)
	permissions := sso.NewRegistry(platformCfg.DataDir, platformCfg.Gateway.ConfPath, reloader)

	dir := directory.New(platformCfg.Directory.Dir, platformCfg.Directory.Domains)
	policy := &directory.Policy{
		MinLength:  platformCfg.Password.MinLength,
		MinClasses: platformCfg.Password.MinClasses,
	}

	cat := catalog.NewManager(platformCfg.Catalog.URL, platformCfg.DataDir)
	acquirer := source.NewAcquirer(cat, platformCfg.StagingDir)

	registrar := hooks.NewRegistrar(platformCfg.HooksDir)
	journal := operations.NewJournal(platformCfg.DataDir)

	platformVersion := platformCfg.Platform.Version
	if platformVersion == "" {
		platformVersion = cfg.Version
	}

	manager := lifecycle.NewManager(lifecycle.Config{
		Repository:         repo,
		Source:             acquirer,
		Scripts:            gateway,
		Permissions:        permissions,
		Directory:          dir,
		Policy:             policy,
		Hooks:              registrar,
		Journal:            journal,
		Asker:              cfg.Asker,
		PlatformVersion:    platformVersion,
		DependencyVersions: platformCfg.Platform.Dependencies,
	})

	return &Services{
		Manager:     manager,
		Repository:  repo,
		Catalog:     cat,
		Permissions: permissions,
		Directory:   dir,
		Journal:     journal,
	}, nil
}
