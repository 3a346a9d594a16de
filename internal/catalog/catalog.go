// Package catalog maintains the list of installable apps: id, description,
// latest version, and the remote each app is fetched from.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"sigs.k8s.io/yaml"

	"steward/internal/api"
	"steward/pkg/logging"
)

const subsystem = "Catalog"

// cacheFile is the on-disk copy of the last fetched catalog.
const cacheFile = "catalog.yml"

// defaultTTL is how long a fetched catalog stays fresh. After this the next
// lookup re-fetches from the catalog URL, falling back to the cached copy
// when the network is unavailable.
const defaultTTL = 24 * time.Hour

// Entry describes one app the catalog offers.
type Entry struct {
	ID          string     `json:"id"`
	Description string     `json:"description,omitempty"`
	Version     string     `json:"version,omitempty"`
	Remote      api.Remote `json:"remote"`
}

// document is the wire format of a catalog feed. Feeds may be YAML or JSON.
type document struct {
	Apps map[string]Entry `json:"apps"`
}

// Manager caches the catalog in memory with a TTL and durably in the data
// dir. Concurrent refreshes for the same feed are deduplicated.
type Manager struct {
	url       string
	cachePath string
	ttl       time.Duration
	client    *http.Client

	mu        sync.RWMutex
	entries   map[string]Entry
	fetchedAt time.Time

	group singleflight.Group
}

// NewManager creates a manager fetching from url and caching under dataDir.
// An empty url disables refreshing; only the cached copy is served.
func NewManager(url string, dataDir string) *Manager {
	return &Manager{
		url:       url,
		cachePath: filepath.Join(dataDir, cacheFile),
		ttl:       defaultTTL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Get returns one catalog entry by app id.
func (m *Manager) Get(ctx context.Context, id string) (*Entry, error) {
	entries, err := m.load(ctx, false)
	if err != nil {
		return nil, err
	}
	entry, ok := entries[id]
	if !ok {
		return nil, api.NewCatalogEntryNotFoundError(id)
	}
	return &entry, nil
}

// List returns every entry sorted by id.
func (m *Manager) List(ctx context.Context) ([]Entry, error) {
	entries, err := m.load(ctx, false)
	if err != nil {
		return nil, err
	}

	list := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Refresh re-fetches the catalog from its URL regardless of cache age.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err := m.load(ctx, true)
	return err
}

// load returns the entry set, serving from memory while fresh and otherwise
// refreshing through a singleflight group so concurrent callers share one
// fetch.
func (m *Manager) load(ctx context.Context, force bool) (map[string]Entry, error) {
	m.mu.RLock()
	if !force && m.entries != nil && time.Since(m.fetchedAt) < m.ttl {
		entries := m.entries
		m.mu.RUnlock()
		return entries, nil
	}
	m.mu.RUnlock()

	result, err, _ := m.group.Do("catalog", func() (interface{}, error) {
		// Double-check after acquiring the singleflight slot.
		m.mu.RLock()
		if !force && m.entries != nil && time.Since(m.fetchedAt) < m.ttl {
			entries := m.entries
			m.mu.RUnlock()
			return entries, nil
		}
		m.mu.RUnlock()

		return m.refresh(ctx, force)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]Entry), nil
}

func (m *Manager) refresh(ctx context.Context, force bool) (map[string]Entry, error) {
	// A fresh enough disk cache avoids the network entirely.
	if !force {
		if entries, at, err := m.readCache(); err == nil && time.Since(at) < m.ttl {
			m.store(entries, at)
			return entries, nil
		}
	}

	if m.url == "" {
		entries, at, err := m.readCache()
		if err != nil {
			return nil, fmt.Errorf("no catalog URL configured and no cached catalog available")
		}
		m.store(entries, at)
		return entries, nil
	}

	entries, err := m.fetch(ctx)
	if err != nil {
		// Stale cache beats no catalog at all.
		if cached, at, cacheErr := m.readCache(); cacheErr == nil {
			logging.Warn(subsystem, "Catalog refresh failed (%v), serving cached copy from %s",
				err, at.Format(time.RFC3339))
			m.store(cached, at)
			return cached, nil
		}
		return nil, err
	}

	now := time.Now()
	m.store(entries, now)
	if err := m.writeCache(entries); err != nil {
		logging.Warn(subsystem, "Failed to write catalog cache: %v", err)
	}
	logging.Info(subsystem, "Fetched catalog with %d apps", len(entries))
	return entries, nil
}

func (m *Manager) fetch(ctx context.Context) (map[string]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog from %s: %w", m.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch from %s returned %s", m.url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog body: %w", err)
	}
	return parseDocument(data)
}

func parseDocument(data []byte) (map[string]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if doc.Apps == nil {
		doc.Apps = make(map[string]Entry)
	}
	for id, entry := range doc.Apps {
		entry.ID = id
		doc.Apps[id] = entry
	}
	return doc.Apps, nil
}

func (m *Manager) store(entries map[string]Entry, at time.Time) {
	m.mu.Lock()
	m.entries = entries
	m.fetchedAt = at
	m.mu.Unlock()
}

func (m *Manager) readCache() (map[string]Entry, time.Time, error) {
	info, err := os.Stat(m.cachePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(m.cachePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	entries, err := parseDocument(data)
	if err != nil {
		return nil, time.Time{}, err
	}
	return entries, info.ModTime(), nil
}

func (m *Manager) writeCache(entries map[string]Entry) error {
	data, err := yaml.Marshal(document{Apps: entries})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.cachePath, data, 0o644)
}

// CacheAge returns how old the durable cache is, or an error when no cache
// exists yet.
func (m *Manager) CacheAge() (time.Duration, error) {
	info, err := os.Stat(m.cachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("catalog has never been fetched")
		}
		return 0, err
	}
	return time.Since(info.ModTime()), nil
}
