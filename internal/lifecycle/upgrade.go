package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/internal/manifest"
	"steward/pkg/logging"
)

// Upgrade re-fetches and upgrades the named instances, or every installed
// instance when none are named. The batch is non-atomic by design: each
// instance is handled in isolation, failures are recorded and the batch
// moves on. The returned error is non-nil only when not a single instance
// upgraded.
//
// An instance's durable tree is replaced only after its upgrade script
// succeeds, so a failed upgrade leaves the previously installed version in
// place. App-internal state the script already migrated is not restored.
func (m *Manager) Upgrade(ctx context.Context, req api.UpgradeRequest) (*api.UpgradeBatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := req.Instances
	if len(names) == 0 {
		all, err := m.repo.List()
		if err != nil {
			return nil, err
		}
		names = all
	}
	names = dedup(names)

	batch := &api.UpgradeBatchResult{}
	for _, name := range names {
		if ctx.Err() != nil {
			batch.Reports = append(batch.Reports, api.UpgradeReport{
				Instance: name,
				Outcome:  api.UpgradeSkipped,
				Reason:   "batch interrupted",
			})
			continue
		}
		batch.Reports = append(batch.Reports, m.upgradeOne(ctx, name, req))
	}

	if len(batch.Reports) == 0 {
		return batch, fmt.Errorf("no installed instance to upgrade")
	}
	if batch.Upgraded() == 0 {
		return batch, fmt.Errorf("no instance was upgraded")
	}
	return batch, nil
}

func (m *Manager) upgradeOne(ctx context.Context, name string, req api.UpgradeRequest) api.UpgradeReport {
	report := api.UpgradeReport{Instance: name, Outcome: api.UpgradeFailed}

	inst, err := m.repo.Load(name)
	if err != nil {
		report.Reason = err.Error()
		return report
	}

	ref := req.Ref
	if ref == "" {
		remote := inst.Status.Remote
		if !remote.Refetchable() {
			report.Outcome = api.UpgradeSkipped
			report.Reason = "recorded source cannot be fetched again, supply an explicit reference"
			logging.Warn(subsystem, "Skipping upgrade of %s: %s", name, report.Reason)
			return report
		}
		if remote.Type == api.RemoteTypeCatalog {
			ref = inst.AppID
		} else {
			ref = remote.URL
		}
	}

	result := &api.OperationResult{Operation: opUpgrade, Instance: name}
	opID := m.journalBegin(opUpgrade, name)
	defer func() { m.journalEnd(opID, result) }()

	fail := func(err error) api.UpgradeReport {
		result.Err = err
		m.transition(opID, result, api.StateFailed)
		logging.Error(subsystem, err, "Upgrade of %s failed", name)
		report.Outcome = api.UpgradeFailed
		report.Reason = err.Error()
		return report
	}

	m.transition(opID, result, api.StateAcquiring)
	src, err := m.source.Fetch(ctx, ref)
	if err != nil {
		return fail(err)
	}
	defer os.RemoveAll(src.Tree)

	if src.Manifest.ID != inst.AppID {
		return fail(fmt.Errorf("source %s carries app %s, instance %s is app %s",
			ref, src.Manifest.ID, name, inst.AppID))
	}

	if err := manifest.CheckRequirements(src.Manifest, m.installedVersions()); err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateRequirementsChecked)

	if !req.Force && inst.Manifest != nil && inst.Manifest.Version == src.Manifest.Version {
		report.Outcome = api.UpgradeSkipped
		report.Reason = fmt.Sprintf("already at version %s", src.Manifest.Version)
		logging.Info(subsystem, "Skipping upgrade of %s: %s", name, report.Reason)
		return report
	}

	upgradeScript := filepath.Join(src.Tree, "scripts", scriptUpgrade)
	if _, err := os.Stat(upgradeScript); err != nil {
		return fail(fmt.Errorf("source %s ships no upgrade script", ref))
	}

	args, err := m.resolver.Resolve(ctx, src.Manifest.ArgumentsFor(opUpgrade), req.Args, name)
	if err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateArgumentsResolved)

	// The fresh tree's script runs before anything durable changes.
	m.transition(opID, result, api.StateScriptRunning)
	if _, err := m.scripts.Run(ctx, api.ScriptRequest{
		Script: upgradeScript,
		Args:   arguments.PositionalArgs(args, name),
		Env:    arguments.EnvironmentFor(arguments.InstallStyle, args, inst.AppID, name, inst.Number),
	}); err != nil {
		return fail(m.interrupted(err, opUpgrade, name))
	}

	settings := inst.Settings.Clone()
	settings[api.SettingUpdateTime] = m.now().UTC().Format(time.RFC3339)
	for _, arg := range args {
		if arg.Kind != api.ArgumentPassword {
			settings[arg.Name] = arg.Value
		}
	}
	if err := m.repo.SaveSettings(name, settings); err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateSettingsPersisted)

	if err := m.repo.ImportTree(name, src.Tree); err != nil {
		return fail(err)
	}
	if err := m.repo.SaveStatus(name, api.InstanceStatus{
		InstalledAt: inst.Status.InstalledAt,
		UpgradedAt:  m.now().UTC(),
		Remote:      src.Remote,
	}); err != nil {
		return fail(err)
	}
	if err := m.repo.Restrict(name); err != nil {
		return fail(err)
	}

	if err := m.hooks.RemoveFor(name); err != nil {
		result.AddWarning("stale hook cleanup failed: %v", err)
	}
	if err := m.hooks.InstallFrom(src.Tree, name); err != nil {
		result.AddWarning("hook registration failed: %v", err)
	}

	m.transition(opID, result, api.StateCommitted)
	logging.Info(subsystem, "Upgraded %s to version %s", name, src.Manifest.Version)
	report.Outcome = api.UpgradeDone
	report.Reason = fmt.Sprintf("upgraded to version %s", src.Manifest.Version)
	return report
}

func dedup(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
