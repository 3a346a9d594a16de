package lifecycle

import (
	"steward/internal/api"
	"steward/pkg/logging"
)

// InstanceSummary is one row of the installed-instance listing.
type InstanceSummary struct {
	Name    string `json:"name"`
	AppID   string `json:"app_id"`
	Label   string `json:"label,omitempty"`
	Version string `json:"version,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ListInstances summarizes every installed instance, sorted by name. An
// instance whose directory cannot be read is skipped with a warning so one
// broken instance does not hide the rest of the listing.
func (m *Manager) ListInstances() ([]InstanceSummary, error) {
	names, err := m.repo.List()
	if err != nil {
		return nil, err
	}

	summaries := make([]InstanceSummary, 0, len(names))
	for _, name := range names {
		inst, err := m.repo.Load(name)
		if err != nil {
			logging.Warn(subsystem, "Skipping unreadable instance %s: %v", name, err)
			continue
		}
		summary := InstanceSummary{
			Name:   inst.Name,
			AppID:  inst.AppID,
			Label:  inst.Settings.Label(),
			Domain: inst.Settings.Domain(),
			Path:   inst.Settings.Path(),
		}
		if inst.Manifest != nil {
			summary.Version = inst.Manifest.Version
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Info returns the full record of one installed instance: settings, status,
// and manifest.
func (m *Manager) Info(name string) (*api.AppInstance, error) {
	return m.repo.Load(name)
}

// RoutingMap returns the served URL space as domain, then path, then the
// instance name claiming it. A non-empty instance restricts the map to that
// instance's claims.
func (m *Manager) RoutingMap(instance string) (map[string]map[string]string, error) {
	if instance != "" && !m.repo.Exists(instance) {
		return nil, api.NewInstanceNotFoundError(instance)
	}

	locations, err := m.repo.Locations()
	if err != nil {
		return nil, err
	}

	routes := make(map[string]map[string]string)
	for _, loc := range locations {
		if instance != "" && loc.Instance != instance {
			continue
		}
		if routes[loc.Domain] == nil {
			routes[loc.Domain] = make(map[string]string)
		}
		routes[loc.Domain][loc.Path] = loc.Instance
	}
	return routes, nil
}
