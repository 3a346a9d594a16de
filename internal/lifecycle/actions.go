package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"steward/internal/api"
	"steward/internal/arguments"
	"steward/pkg/logging"
)

// ActionSpec is one maintenance action an app declares in its actions.json.
// The implementing script lives at scripts/actions/<id> inside the app tree.
type ActionSpec struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Arguments   []api.ArgumentSpec `json:"arguments,omitempty"`
}

type actionsDocument struct {
	Actions []ActionSpec `json:"actions"`
}

// ListActions returns the maintenance actions an instance declares, in
// declaration order. An app without an actions.json declares none.
func (m *Manager) ListActions(instance string) ([]ActionSpec, error) {
	if !m.repo.Exists(instance) {
		return nil, api.NewInstanceNotFoundError(instance)
	}

	data, err := m.repo.ReadFile(instance, "actions.json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc actionsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("actions.json of %s is not valid JSON: %w", instance, err)
	}
	for _, action := range doc.Actions {
		if action.ID == "" {
			return nil, fmt.Errorf("actions.json of %s declares an action without an id", instance)
		}
	}
	return doc.Actions, nil
}

// RunAction executes one declared action. Its arguments resolve exactly
// like lifecycle arguments but project under the action-style prefix, and
// the instance's own URL claim never conflicts with itself. A failing
// action is the app's business: there is nothing to roll back.
func (m *Manager) RunAction(ctx context.Context, req api.ActionRequest) (*api.OperationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := req.Instance
	result := &api.OperationResult{Operation: opAction, Instance: name}

	inst, err := m.repo.Load(name)
	if err != nil {
		result.Err = err
		result.State = api.StateFailed
		return result, err
	}

	actions, err := m.ListActions(name)
	if err != nil {
		result.Err = err
		result.State = api.StateFailed
		return result, err
	}

	var spec *ActionSpec
	for i := range actions {
		if actions[i].ID == req.Action {
			spec = &actions[i]
			break
		}
	}
	if spec == nil {
		result.Err = api.NewNotFoundError("action", req.Action)
		result.State = api.StateFailed
		return result, result.Err
	}

	scriptPath, ok := m.repo.ScriptPath(name, "actions/"+spec.ID)
	if !ok {
		result.Err = fmt.Errorf("app %s declares action %s but ships no script for it", name, spec.ID)
		result.State = api.StateFailed
		return result, result.Err
	}

	opID := m.journalBegin(opAction, name)
	defer func() { m.journalEnd(opID, result) }()

	fail := func(err error) (*api.OperationResult, error) {
		result.Err = err
		m.transition(opID, result, api.StateFailed)
		logging.Error(subsystem, err, "Action %s on %s failed", spec.ID, name)
		return result, err
	}

	args, err := m.resolver.Resolve(ctx, spec.Arguments, req.Args, name)
	if err != nil {
		return fail(err)
	}
	m.transition(opID, result, api.StateArgumentsResolved)

	m.transition(opID, result, api.StateScriptRunning)
	if _, err := m.scripts.Run(ctx, api.ScriptRequest{
		Script: scriptPath,
		Args:   arguments.PositionalArgs(args, name),
		Env:    arguments.EnvironmentFor(arguments.ActionStyle, args, inst.AppID, name, inst.Number),
	}); err != nil {
		return fail(m.interrupted(err, opAction, name))
	}

	m.transition(opID, result, api.StateCommitted)
	logging.Info(subsystem, "Ran action %s on %s", spec.ID, name)
	return result, nil
}
