// Package hooks maintains the platform hook registrations apps declare in
// their source trees. An app ships callbacks under hooks/<name>; installing
// registers each one under <dir>/<name>/<instance> so platform events can run
// every registered instance's callback.
package hooks

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"steward/pkg/logging"
)

const subsystem = "Hooks"

// Registrar implements api.HookRegistrar on a hooks directory.
type Registrar struct {
	dir string
}

// NewRegistrar creates a registrar rooted at dir.
func NewRegistrar(dir string) *Registrar {
	return &Registrar{dir: dir}
}

// InstallFrom registers every hook shipped in the tree's hooks/ directory
// for the given instance. A tree without hooks is fine.
func (r *Registrar) InstallFrom(tree string, instance string) error {
	src := filepath.Join(tree, "hooks")
	entries, err := os.ReadDir(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	installed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		hookDir := filepath.Join(r.dir, entry.Name())
		if err := os.MkdirAll(hookDir, 0755); err != nil {
			return err
		}
		if err := copyHook(filepath.Join(src, entry.Name()), filepath.Join(hookDir, instance)); err != nil {
			return fmt.Errorf("failed to register hook %s for %s: %w", entry.Name(), instance, err)
		}
		installed++
	}

	if installed > 0 {
		logging.Info(subsystem, "Registered %d hooks for %s", installed, instance)
	}
	return nil
}

// RemoveFor clears every hook registered for the instance. Unknown instances
// are a no-op so rollback can call this blindly.
func (r *Registrar) RemoveFor(instance string) error {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		hookDir := filepath.Join(r.dir, entry.Name())
		if err := os.Remove(filepath.Join(hookDir, instance)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		// Drop hook directories nothing is registered under anymore.
		if remaining, err := os.ReadDir(hookDir); err == nil && len(remaining) == 0 {
			_ = os.Remove(hookDir)
		}
	}
	return nil
}

// For returns the hook names registered for the instance, sorted.
func (r *Registrar) For(instance string) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(r.dir, entry.Name(), instance)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func copyHook(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
