package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/internal/script"
	"steward/pkg/logging"
)

// ConfigSection groups the options of one config-panel screen.
type ConfigSection struct {
	ID      string             `json:"id"`
	Name    string             `json:"name,omitempty"`
	Options []api.ArgumentSpec `json:"options,omitempty"`
}

// ConfigPanel is the declarative config_panel.json document: the tunables
// an app exposes after installation, grouped into sections. Options reuse
// the manifest argument spec shape.
type ConfigPanel struct {
	Name     string          `json:"name,omitempty"`
	Sections []ConfigSection `json:"sections,omitempty"`
}

// options returns every declared option across sections.
func (p *ConfigPanel) options() []api.ArgumentSpec {
	var out []api.ArgumentSpec
	for _, section := range p.Sections {
		out = append(out, section.Options...)
	}
	return out
}

// ConfigPanelState pairs the declared panel with the current values the
// app's config script reported.
type ConfigPanelState struct {
	Panel  *ConfigPanel      `json:"panel"`
	Values map[string]string `json:"values"`
}

// loadConfigPanel reads and parses config_panel.json. ok is false when the
// app ships none.
func (m *Manager) loadConfigPanel(instance string) (*ConfigPanel, bool, error) {
	data, err := m.repo.ReadFile(instance, "config_panel.json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var panel ConfigPanel
	if err := json.Unmarshal(data, &panel); err != nil {
		return nil, false, fmt.Errorf("config_panel.json of %s is not valid JSON: %w", instance, err)
	}
	return &panel, true, nil
}

// ShowConfig renders an instance's config panel with its current values.
// The values come from the app's config script, which prints them to stdout
// as STEWARD_CONFIG_<KEY>=<value> lines; an app may declare a panel without
// a script, in which case only the declared defaults are available.
func (m *Manager) ShowConfig(ctx context.Context, instance string) (*ConfigPanelState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.repo.Load(instance)
	if err != nil {
		return nil, err
	}

	panel, ok, err := m.loadConfigPanel(instance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("app %s does not provide a config panel", instance)
	}

	state := &ConfigPanelState{Panel: panel, Values: map[string]string{}}

	scriptPath, ok := m.repo.ScriptPath(instance, scriptConfig)
	if !ok {
		return state, nil
	}

	collector := script.NewConfigCollector()
	if _, err := m.scripts.Run(ctx, api.ScriptRequest{
		Script:   scriptPath,
		Args:     []string{"show", instance},
		Env:      arguments.IdentityEnv(inst.AppID, instance, inst.Number),
		OnStdout: collector.Line,
	}); err != nil {
		return nil, m.interrupted(err, opConfig, instance)
	}

	// Collected keys are env-style uppercase; map them back onto the
	// declared option names. Keys no option declares stay as reported.
	declared := make(map[string]string)
	for _, option := range panel.options() {
		declared[strings.ToUpper(option.Name)] = option.Name
	}
	for key, value := range collector.Values() {
		if name, ok := declared[key]; ok {
			state.Values[name] = value
		} else {
			state.Values[key] = value
		}
	}
	return state, nil
}

// ApplyConfig hands new config-panel values to the app's config script.
// Values are validated against the declared options and projected into the
// script environment under the config prefix; persisting them is the
// script's job, typically back into the instance settings.
func (m *Manager) ApplyConfig(ctx context.Context, req api.ConfigApplyRequest) (*api.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := req.Instance
	result := &api.OperationResult{Operation: opConfig, Instance: name}

	inst, err := m.repo.Load(name)
	if err != nil {
		result.Err = err
		result.State = api.StateFailed
		return result, err
	}

	panel, ok, err := m.loadConfigPanel(name)
	if err != nil {
		result.Err = err
		result.State = api.StateFailed
		return result, err
	}
	if !ok {
		result.Err = fmt.Errorf("app %s does not provide a config panel", name)
		result.State = api.StateFailed
		return result, result.Err
	}

	scriptPath, ok := m.repo.ScriptPath(name, scriptConfig)
	if !ok {
		result.Err = fmt.Errorf("app %s ships no config script", name)
		result.State = api.StateFailed
		return result, result.Err
	}

	opID := m.journalBegin(opConfig, name)
	defer func() { m.journalEnd(opID, result) }()

	fail := func(err error) (*api.OperationResult, error) {
		result.Err = err
		m.transition(opID, result, api.StateFailed)
		logging.Error(subsystem, err, "Config apply on %s failed", name)
		return result, err
	}

	declared := make(map[string]bool)
	for _, option := range panel.options() {
		declared[option.Name] = true
	}
	for key := range req.Values {
		if !declared[key] {
			return fail(&api.ArgumentInvalidError{
				Name:   key,
				Reason: fmt.Sprintf("app %s declares no config option with that name", name),
			})
		}
	}
	m.transition(opID, result, api.StateArgumentsResolved)

	env := arguments.IdentityEnv(inst.AppID, name, inst.Number)
	for key, value := range req.Values {
		env[arguments.ConfigEnvPrefix+strings.ToUpper(key)] = value
	}

	m.transition(opID, result, api.StateScriptRunning)
	if _, err := m.scripts.Run(ctx, api.ScriptRequest{
		Script: scriptPath,
		Args:   []string{"apply", name},
		Env:    env,
	}); err != nil {
		return fail(m.interrupted(err, opConfig, name))
	}

	m.transition(opID, result, api.StateCommitted)
	logging.Info(subsystem, "Applied %d config values to %s", len(req.Values), name)
	return result, nil
}
