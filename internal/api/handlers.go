package api

import "context"

// This file defines the collaborator contracts consumed by the lifecycle
// state machine. Implementations live in their own packages (script, sso,
// directory, source, instance); the state machine depends only on these
// interfaces so every one of them can be replaced by a fake in tests.

// SourceAcquirer turns a user-supplied reference into an extracted app tree
// plus its parsed manifest. Supported reference forms: a local directory, a
// local archive, a direct URL, or an app id resolved through the catalog.
type SourceAcquirer interface {
	// Fetch acquires the source behind ref. The returned tree is a freshly
	// extracted directory owned by the caller.
	Fetch(ctx context.Context, ref string) (*AppSource, error)
}

// ScriptRequest describes one lifecycle script invocation.
type ScriptRequest struct {
	// Script is the path of the script to execute.
	Script string

	// Args are the positional arguments, in declaration order.
	Args []string

	// Env is the projected environment mapping, merged over a minimal base
	// environment.
	Env map[string]string

	// WorkDir is the working directory for the child process. Empty means
	// the script's own directory.
	WorkDir string

	// RunAs switches the executing user when non-empty.
	RunAs string

	// OnStdout, when non-nil, receives every stdout line as it is produced.
	// This is the text-based IPC channel used by the config-panel feature.
	OnStdout func(line string)
}

// ScriptGateway executes lifecycle scripts. Run blocks until the child
// process exits and returns its exit code; a non-zero exit is reported
// through the error as well. Context cancellation kills the child and is
// reported as an interruption.
type ScriptGateway interface {
	Run(ctx context.Context, req ScriptRequest) (int, error)
}

// PermissionRegistry is the single-sign-on permission store consumed by the
// lifecycle layer. Synchronization to the gateway is an explicit step, not a
// side effect of the mutating calls.
type PermissionRegistry interface {
	// AddPermission creates the main permission record for an instance.
	AddPermission(ctx context.Context, instance string, allowed []string) error

	// RemovePermission deletes every permission record of an instance.
	RemovePermission(ctx context.Context, instance string) error

	// UpdatePermissionURL rebinds the URL of an instance's main permission.
	UpdatePermissionURL(ctx context.Context, instance string, url string) error

	// SyncToGateway renders the permission state into the gateway conf and
	// reloads the gateway.
	SyncToGateway(ctx context.Context) error
}

// IdentityDirectory resolves domains and users. It is a read-only
// collaborator for the argument resolver.
type IdentityDirectory interface {
	// ListDomains returns every domain apps may be bound to.
	ListDomains(ctx context.Context) ([]string, error)

	// ResolveUser looks up one user by name.
	ResolveUser(ctx context.Context, name string) (*User, error)
}

// PasswordPolicy validates password-kind argument values.
type PasswordPolicy interface {
	// AssertStrongEnough fails with a policy explanation when the password
	// is too weak.
	AssertStrongEnough(ctx context.Context, password string) error
}

// Repository is the durable registry of installed instances. The instance
// directory on disk is the single source of truth; this abstraction keeps
// the state machine free of direct file I/O so tests can run in memory.
type Repository interface {
	// Exists reports whether an instance directory exists.
	Exists(name string) bool

	// Load reads one instance: settings, status, manifest.
	Load(name string) (*AppInstance, error)

	// List returns every instance name, sorted.
	List() ([]string, error)

	// Locations returns each installed instance's (domain, path) claim,
	// skipping instances without one.
	Locations() ([]Location, error)

	// SaveSettings writes settings.yml for the instance, creating the
	// instance directory when needed. This is the first durable write of an
	// installation.
	SaveSettings(name string, settings InstanceSettings) error

	// SaveStatus writes status.json for the instance.
	SaveStatus(name string, status InstanceStatus) error

	// ImportTree copies the acquired source tree (manifest.json, scripts/,
	// conf/, actions.json, config_panel.json, hooks/) into the instance
	// directory, replacing previous content of those entries.
	ImportTree(name string, tree string) error

	// ScriptPath resolves a lifecycle script inside the instance directory.
	// ok is false when the instance does not ship that script.
	ScriptPath(name string, script string) (path string, ok bool)

	// ReadFile reads a file of the imported tree (actions.json,
	// config_panel.json) relative to the instance directory.
	ReadFile(name string, rel string) ([]byte, error)

	// Restrict tightens the instance directory permissions after commit.
	Restrict(name string) error

	// Delete removes the whole instance directory.
	Delete(name string) error
}

// HookRegistrar maintains the platform hook registrations an app declares in
// its source tree.
type HookRegistrar interface {
	// RemoveFor clears every hook registered for the instance.
	RemoveFor(instance string) error

	// InstallFrom registers the hooks shipped in the tree's hooks/ dir.
	InstallFrom(tree string, instance string) error
}

// Journal records lifecycle operations for auditing.
type Journal interface {
	// Begin opens a record and returns its id.
	Begin(operation string, instance string) string

	// Update notes a state transition on an open record.
	Update(id string, state OperationState)

	// End closes the record with the operation's outcome.
	End(id string, result *OperationResult)
}
