package instance

import (
	"io/fs"
	"sort"
	"sync"

	"steward/internal/api"
)

// MemoryRepository is an in-memory api.Repository used by tests. It mirrors
// Store's behavior without touching the filesystem, except for script
// resolution which is seeded explicitly through AddScript.
type MemoryRepository struct {
	mu        sync.RWMutex
	instances map[string]*memoryRecord
}

type memoryRecord struct {
	settings   api.InstanceSettings
	status     api.InstanceStatus
	hasStatus  bool
	manifest   *api.Manifest
	scripts    map[string]string
	files      map[string][]byte
	tree       string
	restricted bool
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{instances: make(map[string]*memoryRecord)}
}

func (m *MemoryRepository) record(name string) *memoryRecord {
	rec, ok := m.instances[name]
	if !ok {
		rec = &memoryRecord{scripts: make(map[string]string), files: make(map[string][]byte)}
		m.instances[name] = rec
	}
	return rec
}

// Exists reports whether an instance record exists.
func (m *MemoryRepository) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.instances[name]
	return ok
}

// Load returns a copy of the instance record.
func (m *MemoryRepository) Load(name string) (*api.AppInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.instances[name]
	if !ok {
		return nil, api.NewInstanceNotFoundError(name)
	}

	inst := &api.AppInstance{
		Name:     name,
		Settings: rec.settings.Clone(),
		Status:   rec.status,
		Manifest: rec.manifest,
	}
	inst.AppID, inst.Number = ParseName(name)
	return inst, nil
}

// List returns every instance name, sorted.
func (m *MemoryRepository) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Locations returns each instance's (domain, path) claim.
func (m *MemoryRepository) Locations() ([]api.Location, error) {
	names, _ := m.List()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var locations []api.Location
	for _, name := range names {
		rec := m.instances[name]
		domain, path := rec.settings.Domain(), rec.settings.Path()
		if domain == "" || path == "" {
			continue
		}
		locations = append(locations, api.Location{Domain: domain, Path: path, Instance: name})
	}
	return locations, nil
}

// SaveSettings stores a copy of settings, creating the record when needed.
func (m *MemoryRepository) SaveSettings(name string, settings api.InstanceSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(name).settings = settings.Clone()
	return nil
}

// SaveStatus stores the status record.
func (m *MemoryRepository) SaveStatus(name string, status api.InstanceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.record(name)
	rec.status = status
	rec.hasStatus = true
	return nil
}

// ImportTree records the imported tree path.
func (m *MemoryRepository) ImportTree(name string, tree string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(name).tree = tree
	return nil
}

// ReadFile serves file content seeded through AddFile.
func (m *MemoryRepository) ReadFile(name string, rel string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.instances[name]
	if !ok {
		return nil, api.NewInstanceNotFoundError(name)
	}
	content, ok := rec.files[rel]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// ScriptPath resolves scripts seeded through AddScript.
func (m *MemoryRepository) ScriptPath(name string, script string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.instances[name]
	if !ok {
		return "", false
	}
	path, ok := rec.scripts[script]
	return path, ok
}

// Restrict marks the record restricted.
func (m *MemoryRepository) Restrict(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(name).restricted = true
	return nil
}

// Delete drops the record.
func (m *MemoryRepository) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instances, name)
	return nil
}

// AddScript seeds a lifecycle script for ScriptPath lookups.
func (m *MemoryRepository) AddScript(name string, script string, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(name).scripts[script] = path
}

// AddFile seeds tree file content for ReadFile lookups.
func (m *MemoryRepository) AddFile(name string, rel string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(name).files[rel] = content
}

// SetManifest seeds the stored manifest, as ImportTree would on disk.
func (m *MemoryRepository) SetManifest(name string, manifest *api.Manifest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(name).manifest = manifest
}

// ImportedTree returns the tree path last passed to ImportTree.
func (m *MemoryRepository) ImportedTree(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.instances[name]; ok {
		return rec.tree
	}
	return ""
}

// Restricted reports whether Restrict was called for the instance.
func (m *MemoryRepository) Restricted(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.instances[name]; ok {
		return rec.restricted
	}
	return false
}
