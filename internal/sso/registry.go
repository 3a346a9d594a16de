// Package sso maintains the permission records gating access to installed
// apps and synchronizes them into the single-sign-on gateway configuration.
package sso

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"steward/internal/api"
	"steward/pkg/logging"
)

const subsystem = "SSO"

// permissionsFile is the durable permission store inside the data dir.
const permissionsFile = "permissions.yml"

// Permission is the main access rule of one instance: the URL the gateway
// routes and the users or groups allowed through. The "visitors" group marks
// a public app.
type Permission struct {
	Instance string   `yaml:"instance"`
	URL      string   `yaml:"url,omitempty"`
	Allowed  []string `yaml:"allowed"`
}

type permissionsDoc struct {
	Permissions map[string]Permission `yaml:"permissions"`
}

// Reloader reloads the gateway service after the conf has been rewritten.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Registry is the filesystem-backed api.PermissionRegistry. Mutations touch
// only the permission store; pushing state to the gateway is the explicit
// SyncToGateway step.
type Registry struct {
	mu       sync.Mutex
	path     string
	confPath string
	reloader Reloader
}

// NewRegistry creates a registry persisting under dataDir and rendering the
// gateway conf to confPath on sync.
func NewRegistry(dataDir string, confPath string, reloader Reloader) *Registry {
	return &Registry{
		path:     filepath.Join(dataDir, permissionsFile),
		confPath: confPath,
		reloader: reloader,
	}
}

// AddPermission creates (or resets) the main permission record for an
// instance. The URL is bound separately once the install script has settled
// the instance's location.
func (r *Registry) AddPermission(ctx context.Context, instance string, allowed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	doc.Permissions[instance] = Permission{
		Instance: instance,
		Allowed:  append([]string(nil), allowed...),
	}

	logging.Info(subsystem, "Registered permission for %s (allowed: %v)", instance, allowed)
	return r.save(doc)
}

// RemovePermission deletes the instance's permission records. Removing an
// absent record is not an error, so rollback can call it blindly.
func (r *Registry) RemovePermission(ctx context.Context, instance string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Permissions[instance]; !ok {
		return nil
	}
	delete(doc.Permissions, instance)

	logging.Info(subsystem, "Removed permission for %s", instance)
	return r.save(doc)
}

// UpdatePermissionURL rebinds the URL of the instance's main permission.
func (r *Registry) UpdatePermissionURL(ctx context.Context, instance string, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	perm, ok := doc.Permissions[instance]
	if !ok {
		return api.NewPermissionNotFoundError(instance)
	}
	perm.URL = url
	doc.Permissions[instance] = perm

	logging.Info(subsystem, "Bound %s to %s", instance, url)
	return r.save(doc)
}

// SyncToGateway renders the gateway conf from the current permission state
// and reloads the gateway. A reload failure propagates: the conf on disk is
// already rewritten, but the gateway is not serving it yet.
func (r *Registry) SyncToGateway(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	rendered, err := renderConf(r.sorted(doc))
	if err != nil {
		return fmt.Errorf("failed to render gateway conf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.confPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(r.confPath, rendered, 0o644); err != nil {
		return fmt.Errorf("failed to write gateway conf: %w", err)
	}
	logging.Info(subsystem, "Rendered gateway conf with %d permissions", len(doc.Permissions))

	if r.reloader != nil {
		if err := r.reloader.Reload(ctx); err != nil {
			return fmt.Errorf("gateway reload failed: %w", err)
		}
	}
	return nil
}

// Permissions returns the current records sorted by instance name.
func (r *Registry) Permissions() ([]Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return r.sorted(doc), nil
}

func (r *Registry) sorted(doc *permissionsDoc) []Permission {
	perms := make([]Permission, 0, len(doc.Permissions))
	for _, p := range doc.Permissions {
		perms = append(perms, p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Instance < perms[j].Instance })
	return perms
}

func (r *Registry) load() (*permissionsDoc, error) {
	doc := &permissionsDoc{Permissions: make(map[string]Permission)}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read permission store: %w", err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse permission store: %w", err)
	}
	if doc.Permissions == nil {
		doc.Permissions = make(map[string]Permission)
	}
	return doc, nil
}

func (r *Registry) save(doc *permissionsDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal permission store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}
