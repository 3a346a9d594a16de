package instance

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"steward/internal/api"
	"steward/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	settingsFile = "settings.yml"
	statusFile   = "status.json"
	manifestFile = "manifest.json"
	scriptsDir   = "scripts"
)

// treeEntries are the source tree entries imported into an instance
// directory at commit time. Entries missing from the tree are skipped;
// entries present replace whatever the instance directory held before.
var treeEntries = []string{
	manifestFile,
	scriptsDir,
	"conf",
	"hooks",
	"actions.json",
	"config_panel.json",
}

// Store is the durable instance repository: one directory per instance under
// the instances root, holding settings.yml, status.json, manifest.json and
// the imported source tree. It implements api.Repository.
type Store struct {
	mu      sync.RWMutex
	dataDir string
}

// NewStore creates a Store rooted at dataDir. The directory is created on
// first write.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Root returns the instances root directory, for consumers that need to
// watch it.
func (s *Store) Root() string {
	return s.dataDir
}

// Exists reports whether an instance directory exists.
func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(s.instanceDir(name))
	return err == nil && info.IsDir()
}

// Load reads one instance's settings, status, and manifest. The settings
// file is mandatory; status and manifest are tolerated missing so partially
// imported legacy directories still list.
func (s *Store) Load(name string) (*api.AppInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.instanceDir(name)
	data, err := os.ReadFile(filepath.Join(dir, settingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, api.NewInstanceNotFoundError(name)
		}
		return nil, fmt.Errorf("failed to read settings for %s: %w", name, err)
	}

	var settings api.InstanceSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings for %s: %w", name, err)
	}

	inst := &api.AppInstance{
		Name:     name,
		Settings: settings,
	}
	inst.AppID, inst.Number = ParseName(name)

	if raw, err := os.ReadFile(filepath.Join(dir, statusFile)); err == nil {
		if err := json.Unmarshal(raw, &inst.Status); err != nil {
			return nil, fmt.Errorf("failed to parse status for %s: %w", name, err)
		}
	}

	if raw, err := os.ReadFile(filepath.Join(dir, manifestFile)); err == nil {
		var m api.Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to parse manifest for %s: %w", name, err)
		}
		inst.Manifest = &m
	}

	logging.Debug("Instances", "Loaded instance %s", name)
	return inst, nil
}

// List returns every instance name, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Locations returns the (domain, path) claim of every instance that has one.
func (s *Store) Locations() ([]api.Location, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	var locations []api.Location
	for _, name := range names {
		inst, err := s.Load(name)
		if err != nil {
			logging.Warn("Instances", "Skipping unreadable instance %s: %v", name, err)
			continue
		}
		domain, path := inst.Settings.Domain(), inst.Settings.Path()
		if domain == "" || path == "" {
			continue
		}
		locations = append(locations, api.Location{Domain: domain, Path: path, Instance: name})
	}
	return locations, nil
}

// SaveSettings writes settings.yml, creating the instance directory when
// needed. This is the first durable write of an installation.
func (s *Store) SaveSettings(name string, settings api.InstanceSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.instanceDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create instance directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings for %s: %w", name, err)
	}

	path := filepath.Join(dir, settingsFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	logging.Info("Instances", "Saved settings for %s", name)
	return nil
}

// SaveStatus writes status.json.
func (s *Store) SaveStatus(name string, status api.InstanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.instanceDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create instance directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status for %s: %w", name, err)
	}

	path := filepath.Join(dir, statusFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	logging.Info("Instances", "Saved status for %s", name)
	return nil
}

// ImportTree copies the acquired source tree entries into the instance
// directory, replacing previous content entry by entry.
func (s *Store) ImportTree(name string, tree string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.instanceDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create instance directory %s: %w", dir, err)
	}

	for _, entry := range treeEntries {
		src := filepath.Join(tree, entry)
		info, err := os.Stat(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", src, err)
		}

		dst := filepath.Join(dir, entry)
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dst, err)
		}

		if info.IsDir() {
			if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
				return fmt.Errorf("failed to copy %s: %w", entry, err)
			}
		} else if err := copyFile(src, dst, info.Mode()); err != nil {
			return fmt.Errorf("failed to copy %s: %w", entry, err)
		}
	}

	logging.Info("Instances", "Imported source tree for %s", name)
	return nil
}

// ReadFile reads a file relative to the instance directory. The relative
// path must stay inside it.
func (s *Store) ReadFile(name string, rel string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.instanceDir(name)
	path := filepath.Join(dir, filepath.Clean(rel))
	if path != dir && !strings.HasPrefix(path, dir+string(os.PathSeparator)) {
		return nil, fmt.Errorf("path %s escapes the instance directory", rel)
	}
	return os.ReadFile(path)
}

// ScriptPath resolves a lifecycle script inside the instance directory.
func (s *Store) ScriptPath(name string, script string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.instanceDir(name), scriptsDir, script)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Restrict tightens permissions on the instance directory after commit:
// directories 0700, files 0600. Scripts stay runnable because the gateway
// invokes them through the interpreter.
func (s *Store) Restrict(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.instanceDir(name)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.Chmod(path, 0o700)
		}
		return os.Chmod(path, 0o600)
	})
}

// Delete removes the whole instance directory.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.instanceDir(name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete instance directory %s: %w", dir, err)
	}

	logging.Info("Instances", "Deleted instance %s", name)
	return nil
}

func (s *Store) instanceDir(name string) string {
	return filepath.Join(s.dataDir, sanitizeName(name))
}

// sanitizeName makes an instance name safe as a directory name. Unlike a
// generic filename sanitizer it must preserve the double-underscore instance
// separator, so underscores are never collapsed.
func sanitizeName(name string) string {
	sanitized := name
	for _, c := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "} {
		sanitized = strings.ReplaceAll(sanitized, c, "_")
	}
	sanitized = strings.TrimLeft(sanitized, "._")
	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
