package lifecycle

import (
	"context"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/internal/instance"
	"steward/pkg/logging"
)

// Remove uninstalls one instance. The remove script runs best effort: its
// failure becomes a warning and removal proceeds, so a broken script can
// never wedge an instance on the machine. Deleting the instance directory
// and refreshing the gateway are the parts that must succeed.
func (m *Manager) Remove(ctx context.Context, req api.RemoveRequest) (*api.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := req.Instance
	result := &api.OperationResult{Operation: opRemove, Instance: name}

	if !m.repo.Exists(name) {
		result.Err = api.NewInstanceNotFoundError(name)
		result.State = api.StateFailed
		return result, result.Err
	}

	opID := m.journalBegin(opRemove, name)
	defer func() { m.journalEnd(opID, result) }()

	fail := func(err error) (*api.OperationResult, error) {
		result.Err = err
		m.transition(opID, result, api.StateFailed)
		logging.Error(subsystem, err, "Remove of %s failed", name)
		return result, err
	}

	appID, number := instance.ParseName(name)

	if path, ok := m.repo.ScriptPath(name, scriptRemove); ok {
		m.transition(opID, result, api.StateScriptRunning)
		env := arguments.IdentityEnv(appID, name, number)
		if req.Purge {
			env[arguments.EnvPurge] = "1"
		}
		if _, err := m.scripts.Run(ctx, api.ScriptRequest{
			Script: path,
			Args:   []string{name},
			Env:    env,
		}); err != nil {
			result.AddWarning("remove script failed: %v", err)
			logging.Warn(subsystem, "Remove script of %s failed, removing anyway: %v", name, err)
		}
	}

	if err := m.sso.RemovePermission(ctx, name); err != nil {
		result.AddWarning("permission cleanup failed: %v", err)
	}
	if err := m.hooks.RemoveFor(name); err != nil {
		result.AddWarning("hook cleanup failed: %v", err)
	}
	if err := m.repo.Delete(name); err != nil {
		return fail(err)
	}
	if err := m.sso.SyncToGateway(ctx); err != nil {
		return fail(err)
	}

	m.transition(opID, result, api.StateCommitted)
	logging.Info(subsystem, "Removed %s", name)
	return result, nil
}
