package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/internal/instance"
	"steward/internal/manifest"
	"steward/pkg/logging"
)

// Install runs the installation state machine for one app source.
//
// Order matters: everything up to argument resolution is pure validation
// that leaves no trace on failure. Persisting the initial settings is the
// first durable write; from that point on, failures trigger the
// compensating rollback unless the request disables it. The reported error
// is always the original failure, with rollback problems attached as
// warnings on the result.
func (m *Manager) Install(ctx context.Context, req api.InstallRequest) (*api.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := &api.OperationResult{Operation: opInstall}
	opID := m.journalBegin(opInstall, req.Ref)
	defer func() { m.journalEnd(opID, result) }()

	fail := func(err error) (*api.OperationResult, error) {
		result.Err = err
		m.transition(opID, result, api.StateFailed)
		logging.Error(subsystem, err, "Install of %s failed", req.Ref)
		return result, err
	}

	m.transition(opID, result, api.StateAcquiring)
	src, err := m.source.Fetch(ctx, req.Ref)
	if err != nil {
		return fail(err)
	}
	defer os.RemoveAll(src.Tree)

	if err := manifest.CheckRequirements(src.Manifest, m.installedVersions()); err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateRequirementsChecked)

	name, number, err := m.nameInstance(src.Manifest)
	if err != nil {
		return fail(err)
	}
	result.Instance = name

	if _, err := os.Stat(filepath.Join(src.Tree, "scripts", scriptInstall)); err != nil {
		return fail(fmt.Errorf("source %s ships no install script", req.Ref))
	}

	args, err := m.resolver.Resolve(ctx, src.Manifest.ArgumentsFor(opInstall), req.Args, name)
	if err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateArgumentsResolved)

	label := req.Label
	if label == "" {
		label = src.Manifest.Name
	}
	settings := api.InstanceSettings{
		api.SettingID:          src.Manifest.ID,
		api.SettingLabel:       label,
		api.SettingInstallTime: m.now().UTC().Format(time.RFC3339),
	}
	for _, arg := range args {
		// Passwords reach the script environment only.
		if arg.Kind == api.ArgumentPassword {
			continue
		}
		settings[arg.Name] = arg.Value
	}

	// First durable write.
	if err := m.repo.SaveSettings(name, settings); err != nil {
		return fail(err)
	}
	if err := m.repo.ImportTree(name, src.Tree); err != nil {
		return m.rollbackInstall(ctx, opID, result, name, src.Manifest.ID, number, err, req.NoRollbackOnFailure)
	}
	m.transition(opID, result, api.StateSettingsPersisted)

	if err := m.sso.AddPermission(ctx, name, nil); err != nil {
		return m.rollbackInstall(ctx, opID, result, name, src.Manifest.ID, number, err, req.NoRollbackOnFailure)
	}

	scriptPath, ok := m.repo.ScriptPath(name, scriptInstall)
	if !ok {
		err := fmt.Errorf("install script missing from the imported tree of %s", name)
		return m.rollbackInstall(ctx, opID, result, name, src.Manifest.ID, number, err, req.NoRollbackOnFailure)
	}

	m.transition(opID, result, api.StateScriptRunning)
	if _, err := m.scripts.Run(ctx, api.ScriptRequest{
		Script: scriptPath,
		Args:   arguments.PositionalArgs(args, name),
		Env:    arguments.EnvironmentFor(arguments.InstallStyle, args, src.Manifest.ID, name, number),
	}); err != nil {
		cause := m.interrupted(err, opInstall, name)
		return m.rollbackInstall(ctx, opID, result, name, src.Manifest.ID, number, cause, req.NoRollbackOnFailure)
	}

	// Commit. Hook problems are warnings; everything else the platform
	// relies on later (status, permissions, the gateway conf) must stick.
	if err := m.hooks.RemoveFor(name); err != nil {
		result.AddWarning("stale hook cleanup failed: %v", err)
	}
	if err := m.hooks.InstallFrom(src.Tree, name); err != nil {
		result.AddWarning("hook registration failed: %v", err)
	}
	if err := m.repo.SaveStatus(name, api.InstanceStatus{
		InstalledAt: m.now().UTC(),
		Remote:      src.Remote,
	}); err != nil {
		return fail(err)
	}
	if err := m.repo.Restrict(name); err != nil {
		return fail(err)
	}
	if domain, path, ok := locationOf(args); ok {
		if err := m.sso.UpdatePermissionURL(ctx, name, domain+path); err != nil {
			return fail(err)
		}
	}
	if err := m.sso.SyncToGateway(ctx); err != nil {
		return fail(err)
	}

	m.transition(opID, result, api.StateCommitted)
	logging.Info(subsystem, "Installed %s", name)
	return result, nil
}

// nameInstance picks the next free instance name for the app, rejecting a
// second instance of apps that do not declare multi_instance.
func (m *Manager) nameInstance(man *api.Manifest) (string, int, error) {
	existing, err := m.repo.List()
	if err != nil {
		return "", 0, err
	}
	number := instance.NextNumber(man.ID, existing)
	if number > 1 && !man.MultiInstance {
		return "", 0, &api.AlreadyInstalledError{App: man.ID}
	}
	return instance.NameFor(man.ID, number), number, nil
}

// rollbackInstall compensates a failed installation: run the app's remove
// script with the minimal identity environment, drop the permission record,
// and delete the instance directory. Every problem on this path becomes a
// warning; cause stays the reported error.
func (m *Manager) rollbackInstall(ctx context.Context, opID string, result *api.OperationResult, name, appID string, number int, cause error, skip bool) (*api.OperationResult, error) {
	result.Err = cause
	logging.Error(subsystem, cause, "Install of %s failed after durable writes", name)

	if skip {
		result.AddWarning("rollback disabled, partial instance %s left in place", name)
		m.transition(opID, result, api.StateFailed)
		return result, cause
	}

	m.transition(opID, result, api.StateRollingBack)

	// The triggering context may already be cancelled; compensation still
	// has to run.
	rctx := context.WithoutCancel(ctx)

	if path, ok := m.repo.ScriptPath(name, scriptRemove); ok {
		if _, err := m.scripts.Run(rctx, api.ScriptRequest{
			Script: path,
			Args:   []string{name},
			Env:    arguments.IdentityEnv(appID, name, number),
		}); err != nil {
			result.AddWarning("rollback remove script failed: %v", err)
		}
	}
	if err := m.sso.RemovePermission(rctx, name); err != nil {
		result.AddWarning("rollback permission cleanup failed: %v", err)
	}
	if err := m.repo.Delete(name); err != nil {
		result.AddWarning("rollback could not delete the instance directory: %v", err)
	}

	m.transition(opID, result, api.StateRolledBack)
	return result, cause
}
