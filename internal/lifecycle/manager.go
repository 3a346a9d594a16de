// Package lifecycle implements the install/upgrade/remove/change-url state
// machine. The Manager depends only on the collaborator contracts declared
// in internal/api, so every side-effecting layer (repository, script
// gateway, permission registry, source acquirer) can be swapped for a fake
// in tests.
//
// Operations run one at a time: the entry points serialize on an internal
// mutex, scripts block until the child process exits, and there is no layer
// timeout. Cancelling the context interrupts the running script and drives
// the same compensation path as a script failure, reported as Interrupted.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/internal/manifest"
	"steward/pkg/logging"
)

const subsystem = "Lifecycle"

// Operation names as they appear in journal records and error messages.
// Install and upgrade double as the manifest action keys whose argument
// specs they resolve.
const (
	opInstall   = "install"
	opUpgrade   = "upgrade"
	opRemove    = "remove"
	opChangeURL = "change-url"
	opAction    = "action"
	opConfig    = "config"
)

// Lifecycle script names under an app tree's scripts/ directory.
const (
	scriptInstall   = "install"
	scriptUpgrade   = "upgrade"
	scriptRemove    = "remove"
	scriptChangeURL = "change_url"
	scriptConfig    = "config"
)

// Config wires a Manager's collaborators.
type Config struct {
	Repository  api.Repository
	Source      api.SourceAcquirer
	Scripts     api.ScriptGateway
	Permissions api.PermissionRegistry
	Directory   api.IdentityDirectory
	Policy      api.PasswordPolicy
	Hooks       api.HookRegistrar

	// Journal records operations for auditing. Nil disables journaling.
	Journal api.Journal

	// Asker prompts for missing argument values. Nil restricts resolution
	// to caller values and defaults.
	Asker arguments.Asker

	// PlatformVersion satisfies the platform entry of manifest requirements.
	PlatformVersion string

	// DependencyVersions lists further installed dependency versions
	// (interpreters, databases) for the requirements check.
	DependencyVersions map[string]string
}

// Manager runs lifecycle operations.
type Manager struct {
	mu sync.Mutex

	repo      api.Repository
	source    api.SourceAcquirer
	scripts   api.ScriptGateway
	sso       api.PermissionRegistry
	directory api.IdentityDirectory
	hooks     api.HookRegistrar
	journal   api.Journal
	resolver  *arguments.Resolver

	platformVersion string
	dependencies    map[string]string

	now func() time.Time
}

// NewManager creates a Manager from its collaborators.
func NewManager(cfg Config) *Manager {
	return &Manager{
		repo:            cfg.Repository,
		source:          cfg.Source,
		scripts:         cfg.Scripts,
		sso:             cfg.Permissions,
		directory:       cfg.Directory,
		hooks:           cfg.Hooks,
		journal:         cfg.Journal,
		resolver:        arguments.NewResolver(cfg.Directory, cfg.Policy, cfg.Repository, cfg.Asker),
		platformVersion: cfg.PlatformVersion,
		dependencies:    cfg.DependencyVersions,
		now:             time.Now,
	}
}

// installedVersions merges the platform version with the configured
// dependency versions for the requirements check.
func (m *Manager) installedVersions() map[string]string {
	out := make(map[string]string, len(m.dependencies)+1)
	out[manifest.PlatformDependency] = m.platformVersion
	for k, v := range m.dependencies {
		out[k] = v
	}
	return out
}

func (m *Manager) journalBegin(operation string, instance string) string {
	if m.journal == nil {
		return ""
	}
	return m.journal.Begin(operation, instance)
}

func (m *Manager) journalEnd(opID string, result *api.OperationResult) {
	if m.journal == nil {
		return
	}
	m.journal.End(opID, result)
}

// transition moves the operation into the given state, mirroring it on the
// result and in the journal.
func (m *Manager) transition(opID string, result *api.OperationResult, state api.OperationState) {
	result.State = state
	logging.Debug(subsystem, "%s of %s: %s", result.Operation, result.Instance, state)
	if m.journal != nil {
		m.journal.Update(opID, state)
	}
}

// interrupted maps context cancellation onto the Interrupted error kind; any
// other error passes through unchanged.
func (m *Manager) interrupted(err error, operation string, instance string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &api.InterruptedError{Operation: operation, Instance: instance}
	}
	return err
}

// locationOf extracts the bound (domain, path) claim when the resolved
// arguments carry exactly one domain-kind and one path-kind value.
func locationOf(args api.ResolvedArguments) (domain string, path string, ok bool) {
	var domains, paths []string
	for _, arg := range args {
		switch arg.Kind {
		case api.ArgumentDomain:
			domains = append(domains, arg.Value)
		case api.ArgumentPath:
			paths = append(paths, arg.Value)
		}
	}
	if len(domains) != 1 || len(paths) != 1 || domains[0] == "" || paths[0] == "" {
		return "", "", false
	}
	return domains[0], paths[0], true
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
