package lifecycle

import (
	"context"

	"steward/internal/api"
	"steward/pkg/logging"
)

// GetSetting returns one persisted setting of an instance rendered as a
// string. A key the instance does not carry yields "" without an error,
// matching what scripts see through the settings store.
func (m *Manager) GetSetting(instance string, key string) (string, error) {
	inst, err := m.repo.Load(instance)
	if err != nil {
		return "", err
	}
	return inst.Settings.GetString(key), nil
}

// SetSetting writes one setting of an instance. This is the raw admin
// escape hatch: any key goes, including the well-known ones, exactly as the
// app's own scripts may write them.
func (m *Manager) SetSetting(instance string, key string, value string) error {
	if key == "" {
		return &api.ArgumentInvalidError{Name: "key", Reason: "a setting key must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.repo.Load(instance)
	if err != nil {
		return err
	}

	settings := inst.Settings.Clone()
	settings[key] = value
	return m.repo.SaveSettings(instance, settings)
}

// DeleteSetting removes one setting of an instance. Deleting an absent key
// is a no-op.
func (m *Manager) DeleteSetting(instance string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.repo.Load(instance)
	if err != nil {
		return err
	}
	if _, ok := inst.Settings[key]; !ok {
		return nil
	}

	settings := inst.Settings.Clone()
	delete(settings, key)
	return m.repo.SaveSettings(instance, settings)
}

// ChangeLabel renames the user-visible label of an instance and pushes the
// new name to the gateway, which displays labels on its portal.
func (m *Manager) ChangeLabel(ctx context.Context, instance string, label string) error {
	if label == "" {
		return &api.ArgumentInvalidError{Name: "label", Reason: "a label must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.repo.Load(instance)
	if err != nil {
		return err
	}

	settings := inst.Settings.Clone()
	settings[api.SettingLabel] = label
	if err := m.repo.SaveSettings(instance, settings); err != nil {
		return err
	}
	if err := m.sso.SyncToGateway(ctx); err != nil {
		return err
	}

	logging.Info(subsystem, "Relabeled %s to %q", instance, label)
	return nil
}
