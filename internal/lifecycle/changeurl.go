package lifecycle

import (
	"context"
	"fmt"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/pkg/logging"
)

// ChangeURL moves an installed instance to a new domain and/or path. The
// app must ship a change_url script. Checking the new claim is a pure
// query; the settings are rewritten just before the script runs and
// restored if it fails. A gateway reload failure fails the whole operation:
// the platform never reports a URL change the gateway is not serving.
func (m *Manager) ChangeURL(ctx context.Context, req api.ChangeURLRequest) (*api.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := req.Instance
	result := &api.OperationResult{Operation: opChangeURL, Instance: name}

	inst, err := m.repo.Load(name)
	if err != nil {
		result.Err = err
		result.State = api.StateFailed
		return result, err
	}

	scriptPath, ok := m.repo.ScriptPath(name, scriptChangeURL)
	if !ok {
		result.Err = fmt.Errorf("app %s does not support URL changes (no change_url script)", name)
		result.State = api.StateFailed
		return result, result.Err
	}

	opID := m.journalBegin(opChangeURL, name)
	defer func() { m.journalEnd(opID, result) }()

	fail := func(err error) (*api.OperationResult, error) {
		result.Err = err
		m.transition(opID, result, api.StateFailed)
		logging.Error(subsystem, err, "URL change of %s failed", name)
		return result, err
	}

	newDomain := arguments.NormalizeDomain(req.Domain)
	newPath := arguments.NormalizePath(req.Path)

	domains, err := m.directory.ListDomains(ctx)
	if err != nil {
		return fail(err)
	}
	if !containsString(domains, newDomain) {
		return fail(&api.ArgumentInvalidError{
			Name:   "domain",
			Reason: fmt.Sprintf("domain %s is unknown to this server", newDomain),
		})
	}

	oldDomain := inst.Settings.Domain()
	oldPath := inst.Settings.Path()
	if oldDomain == newDomain && oldPath == newPath {
		return fail(fmt.Errorf("instance %s already serves %s%s", name, newDomain, newPath))
	}

	locations, err := m.repo.Locations()
	if err != nil {
		return fail(err)
	}
	if err := arguments.CheckAvailability(newDomain, newPath, locations, name); err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateArgumentsResolved)

	staged := inst.Settings.Clone()
	staged[api.SettingDomain] = newDomain
	staged[api.SettingPath] = newPath
	if err := m.repo.SaveSettings(name, staged); err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateSettingsPersisted)

	env := arguments.IdentityEnv(inst.AppID, name, inst.Number)
	env[arguments.EnvOldDomain] = oldDomain
	env[arguments.EnvOldPath] = oldPath
	env[arguments.EnvNewDomain] = newDomain
	env[arguments.EnvNewPath] = newPath

	m.transition(opID, result, api.StateScriptRunning)
	if _, err := m.scripts.Run(ctx, api.ScriptRequest{
		Script: scriptPath,
		Args:   []string{name},
		Env:    env,
	}); err != nil {
		cause := m.interrupted(err, opChangeURL, name)

		// The app never moved; put the old claim back.
		if err := m.repo.SaveSettings(name, inst.Settings.Clone()); err != nil {
			result.AddWarning("could not restore the previous URL settings: %v", err)
		}
		result.Err = cause
		m.transition(opID, result, api.StateRolledBack)
		logging.Error(subsystem, cause, "URL change of %s failed, previous URL restored", name)
		return result, cause
	}

	if err := m.sso.UpdatePermissionURL(ctx, name, newDomain+newPath); err != nil {
		return fail(err)
	}
	if err := m.sso.SyncToGateway(ctx); err != nil {
		return fail(err)
	}

	m.transition(opID, result, api.StateCommitted)
	logging.Info(subsystem, "Moved %s from %s%s to %s%s", name, oldDomain, oldPath, newDomain, newPath)
	return result, nil
}
