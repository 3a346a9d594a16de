// Package directory implements the identity collaborators: domain and user
// lookups backed by flat files, and the password strength policy.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation"

	"steward/internal/api"
	"steward/pkg/logging"
)

const subsystem = "Directory"

const (
	domainsFile = "domains.yml"
	usersFile   = "users.yml"
)

type domainsDoc struct {
	Domains []string `yaml:"domains"`
}

type usersDoc struct {
	Users map[string]api.User `yaml:"users"`
}

// Directory implements api.IdentityDirectory over domains.yml and users.yml
// in the platform config directory. Files are re-read on every lookup so
// administrative edits take effect immediately.
type Directory struct {
	mu sync.RWMutex

	// dir holds domains.yml and users.yml
	dir string

	// baseDomains come from the platform config and are always listed
	baseDomains []string
}

// New creates a directory over dir. baseDomains are listed even when
// domains.yml is absent.
func New(dir string, baseDomains []string) *Directory {
	return &Directory{dir: dir, baseDomains: baseDomains}
}

// ListDomains returns every domain apps may be bound to: the configured base
// domains plus domains.yml additions, validated, de-duplicated, and sorted.
// Entries that are not valid DNS names are skipped with a warning rather
// than failing the whole lookup.
func (d *Directory) ListDomains(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var doc domainsDoc
	if err := d.read(domainsFile, &doc); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var domains []string
	for _, domain := range append(append([]string(nil), d.baseDomains...), doc.Domains...) {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" || seen[domain] {
			continue
		}
		if problems := validation.IsDNS1123Subdomain(domain); len(problems) > 0 {
			logging.Warn(subsystem, "Skipping invalid domain %q: %s", domain, strings.Join(problems, "; "))
			continue
		}
		seen[domain] = true
		domains = append(domains, domain)
	}

	sort.Strings(domains)
	return domains, nil
}

// ResolveUser looks up one user by name in users.yml.
func (d *Directory) ResolveUser(ctx context.Context, name string) (*api.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var doc usersDoc
	if err := d.read(usersFile, &doc); err != nil {
		return nil, err
	}

	user, ok := doc.Users[name]
	if !ok {
		return nil, api.NewUserNotFoundError(name)
	}
	user.Username = name
	return &user, nil
}

// read parses one YAML file from the directory dir. A missing file is not an
// error; the target keeps its zero value.
func (d *Directory) read(file string, target interface{}) error {
	data, err := os.ReadFile(filepath.Join(d.dir, file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return nil
}
