package instance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"steward/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndLoadSettings(t *testing.T) {
	store := NewStore(t.TempDir())

	settings := api.InstanceSettings{
		api.SettingID:     "wordpress",
		api.SettingLabel:  "Blog",
		api.SettingDomain: "example.org",
		api.SettingPath:   "/blog/",
		"db_name":         "wordpress",
	}
	require.NoError(t, store.SaveSettings("wordpress", settings))

	assert.True(t, store.Exists("wordpress"))
	assert.False(t, store.Exists("wiki"))

	inst, err := store.Load("wordpress")
	require.NoError(t, err)
	assert.Equal(t, "wordpress", inst.Name)
	assert.Equal(t, "wordpress", inst.AppID)
	assert.Equal(t, 1, inst.Number)
	assert.Equal(t, "example.org", inst.Settings.Domain())
	assert.Equal(t, "/blog/", inst.Settings.Path())
	assert.Equal(t, "wordpress", inst.Settings.GetString("db_name"))
}

func TestStoreLoadMissingInstance(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("ghost")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestStoreInstanceNumberFromDirectoryName(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("wordpress__2", api.InstanceSettings{api.SettingID: "wordpress"}))

	inst, err := store.Load("wordpress__2")
	require.NoError(t, err)
	assert.Equal(t, "wordpress", inst.AppID)
	assert.Equal(t, 2, inst.Number)
}

func TestStoreStatusRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("app", api.InstanceSettings{}))

	installed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	status := api.InstanceStatus{
		InstalledAt: installed,
		Remote:      api.Remote{Type: api.RemoteTypeGit, URL: "https://example.org/app.git", Revision: "abc123"},
	}
	require.NoError(t, store.SaveStatus("app", status))

	inst, err := store.Load("app")
	require.NoError(t, err)
	assert.True(t, inst.Status.InstalledAt.Equal(installed))
	assert.Equal(t, api.RemoteTypeGit, inst.Status.Remote.Type)
	assert.Equal(t, "abc123", inst.Status.Remote.Revision)
}

func TestStoreList(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("wiki", api.InstanceSettings{}))
	require.NoError(t, store.SaveSettings("blog__2", api.InstanceSettings{}))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"blog__2", "wiki"}, names)
}

func TestStoreListEmptyRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist-yet"))

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreLocations(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("blog", api.InstanceSettings{
		api.SettingDomain: "example.org",
		api.SettingPath:   "/blog/",
	}))
	require.NoError(t, store.SaveSettings("worker", api.InstanceSettings{
		// No domain/path: background app, claims no location.
	}))

	locations, err := store.Locations()
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, api.Location{Domain: "example.org", Path: "/blog/", Instance: "blog"}, locations[0])
}

func TestStoreImportTree(t *testing.T) {
	tree := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tree, "manifest.json"), []byte(`{"id":"app"}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "scripts", "install"), []byte("#!/bin/bash\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "scripts", "remove"), []byte("#!/bin/bash\n"), 0o755))

	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("app", api.InstanceSettings{}))
	require.NoError(t, store.ImportTree("app", tree))

	path, ok := store.ScriptPath("app", "remove")
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#!/bin/bash")

	_, ok = store.ScriptPath("app", "change_url")
	assert.False(t, ok)

	inst, err := store.Load("app")
	require.NoError(t, err)
	require.NotNil(t, inst.Manifest)
	assert.Equal(t, "app", inst.Manifest.ID)
}

func TestStoreImportTreeReplacesPreviousScripts(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("app", api.InstanceSettings{}))

	oldTree := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(oldTree, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(oldTree, "scripts", "obsolete"), []byte("old"), 0o755))
	require.NoError(t, store.ImportTree("app", oldTree))

	newTree := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(newTree, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(newTree, "scripts", "upgrade"), []byte("new"), 0o755))
	require.NoError(t, store.ImportTree("app", newTree))

	_, ok := store.ScriptPath("app", "obsolete")
	assert.False(t, ok, "stale scripts must not survive a tree import")
	_, ok = store.ScriptPath("app", "upgrade")
	assert.True(t, ok)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.SaveSettings("app", api.InstanceSettings{}))
	require.True(t, store.Exists("app"))

	require.NoError(t, store.Delete("app"))
	assert.False(t, store.Exists("app"))

	// Deleting an absent instance is not an error.
	assert.NoError(t, store.Delete("app"))
}

func TestStoreRestrict(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	require.NoError(t, store.SaveSettings("app", api.InstanceSettings{}))
	require.NoError(t, store.Restrict("app"))

	info, err := os.Stat(filepath.Join(root, "app"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(root, "app", "settings.yml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSanitizeNamePreservesInstanceSeparator(t *testing.T) {
	assert.Equal(t, "wordpress__2", sanitizeName("wordpress__2"))
	assert.Equal(t, "a_b", sanitizeName("a/b"))
	assert.Equal(t, "etc_passwd", sanitizeName("../etc/passwd"))
}
