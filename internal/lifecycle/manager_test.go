package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"steward/internal/api"
	"steward/internal/instance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog records cross-collaborator call order, so tests can assert
// sequencing like "the permission exists before the install script runs".
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) indexOf(event string) int {
	for i, e := range l.all() {
		if e == event {
			return i
		}
	}
	return -1
}

// requireOrder asserts that every named event happened, in the given order.
func requireOrder(t *testing.T, log *eventLog, events ...string) {
	t.Helper()
	last := -1
	for _, event := range events {
		idx := log.indexOf(event)
		require.NotEqual(t, -1, idx, "event %s never happened, log: %v", event, log.all())
		require.Greater(t, idx, last, "event %s out of order, log: %v", event, log.all())
		last = idx
	}
}

// fakeGateway is a scripted api.ScriptGateway. Results and stdout lines are
// keyed by the script's file name.
type fakeGateway struct {
	mu       sync.Mutex
	log      *eventLog
	requests []api.ScriptRequest
	results  map[string]error
	stdout   map[string][]string

	// onRun, when set, runs before the scripted outcome and can inject
	// side effects like cancelling the operation context.
	onRun func(req api.ScriptRequest) error
}

func (g *fakeGateway) Run(ctx context.Context, req api.ScriptRequest) (int, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	name := filepath.Base(req.Script)
	g.log.add("run:" + name)

	if g.onRun != nil {
		if err := g.onRun(req); err != nil {
			return 1, err
		}
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	for _, line := range g.stdout[name] {
		if req.OnStdout != nil {
			req.OnStdout(line)
		}
	}
	if err := g.results[name]; err != nil {
		return 1, err
	}
	return 0, nil
}

// runs returns every recorded request whose script file name matches.
func (g *fakeGateway) runs(script string) []api.ScriptRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []api.ScriptRequest
	for _, req := range g.requests {
		if filepath.Base(req.Script) == script {
			out = append(out, req)
		}
	}
	return out
}

type fakeSSO struct {
	mu      sync.Mutex
	log     *eventLog
	added   []string
	removed []string
	urls    map[string]string
	syncs   int

	addErr    error
	removeErr error
	urlErr    error
	syncErr   error
}

func (s *fakeSSO) AddPermission(ctx context.Context, instance string, allowed []string) error {
	s.log.add("permission-add:" + instance)
	if s.addErr != nil {
		return s.addErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, instance)
	return nil
}

func (s *fakeSSO) RemovePermission(ctx context.Context, instance string) error {
	s.log.add("permission-remove:" + instance)
	if s.removeErr != nil {
		return s.removeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, instance)
	return nil
}

func (s *fakeSSO) UpdatePermissionURL(ctx context.Context, instance string, url string) error {
	s.log.add("permission-url:" + instance)
	if s.urlErr != nil {
		return s.urlErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[instance] = url
	return nil
}

func (s *fakeSSO) SyncToGateway(ctx context.Context) error {
	s.log.add("sync")
	if s.syncErr != nil {
		return s.syncErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return nil
}

func (s *fakeSSO) syncCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncs
}

type fakeHooks struct {
	mu        sync.Mutex
	log       *eventLog
	installed map[string]string
	removed   []string

	installErr error
	removeErr  error
}

func (h *fakeHooks) InstallFrom(tree string, instance string) error {
	h.log.add("hooks-install:" + instance)
	if h.installErr != nil {
		return h.installErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.installed[instance] = tree
	return nil
}

func (h *fakeHooks) RemoveFor(instance string) error {
	h.log.add("hooks-remove:" + instance)
	if h.removeErr != nil {
		return h.removeErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, instance)
	return nil
}

type fakeJournal struct {
	mu     sync.Mutex
	begun  []string
	states []api.OperationState
	ended  []*api.OperationResult
}

func (j *fakeJournal) Begin(operation string, instance string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.begun = append(j.begun, operation+":"+instance)
	return fmt.Sprintf("op-%d", len(j.begun))
}

func (j *fakeJournal) Update(id string, state api.OperationState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.states = append(j.states, state)
}

func (j *fakeJournal) End(id string, result *api.OperationResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ended = append(j.ended, result)
}

type fakeDirectory struct {
	domains []string
}

func (f *fakeDirectory) ListDomains(ctx context.Context) ([]string, error) {
	return f.domains, nil
}

func (f *fakeDirectory) ResolveUser(ctx context.Context, name string) (*api.User, error) {
	return nil, api.NewUserNotFoundError(name)
}

type fakePolicy struct{}

func (fakePolicy) AssertStrongEnough(ctx context.Context, password string) error {
	if len(password) < 8 {
		return &api.WeakPasswordError{Reason: "shorter than 8 characters"}
	}
	return nil
}

// fakeApp is the blueprint one Fetch materializes into a staged tree.
type fakeApp struct {
	manifest *api.Manifest
	scripts  []string
	hooks    []string
	files    map[string]string
	remote   api.Remote
}

// fakeSource serves staged trees built from blueprints. Every Fetch builds
// a fresh tree, since the lifecycle deletes the tree when the operation
// finishes.
type fakeSource struct {
	t    *testing.T
	apps map[string]fakeApp
	err  error

	mu      sync.Mutex
	fetched []string
}

func (f *fakeSource) Fetch(ctx context.Context, ref string) (*api.AppSource, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, ref)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	app, ok := f.apps[ref]
	if !ok {
		return nil, &api.SourceFetchError{Ref: ref, Reason: api.NewCatalogEntryNotFoundError(ref)}
	}
	return &api.AppSource{Manifest: app.manifest, Tree: buildTree(f.t, app), Remote: app.remote}, nil
}

func buildTree(t *testing.T, app fakeApp) string {
	t.Helper()

	tree := t.TempDir()
	data, err := json.Marshal(app.manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tree, "manifest.json"), data, 0o644))

	for _, script := range app.scripts {
		writeTreeFile(t, filepath.Join(tree, "scripts", script), "#!/bin/bash\n")
	}
	for _, hook := range app.hooks {
		writeTreeFile(t, filepath.Join(tree, "hooks", hook), "#!/bin/bash\n")
	}
	for rel, content := range app.files {
		writeTreeFile(t, filepath.Join(tree, rel), content)
	}
	return tree
}

func writeTreeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

// webApp is the standard blueprint: install/upgrade/remove scripts and a
// domain+path install form.
func webApp(id string, version string, multi bool) fakeApp {
	return fakeApp{
		manifest: &api.Manifest{
			ID:            id,
			Name:          "The " + id + " app",
			Version:       version,
			MultiInstance: multi,
			Arguments: map[string][]api.ArgumentSpec{
				"install": {
					{Name: "domain", Kind: api.ArgumentDomain},
					{Name: "path", Kind: api.ArgumentPath},
				},
			},
		},
		scripts: []string{"install", "upgrade", "remove"},
		remote:  api.Remote{Type: api.RemoteTypeURL, URL: "https://example.org/" + id + ".tar.gz"},
	}
}

type fixture struct {
	manager *Manager
	repo    *instance.Store
	dataDir string
	source  *fakeSource
	gateway *fakeGateway
	sso     *fakeSSO
	hooks   *fakeHooks
	journal *fakeJournal
	log     *eventLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := &eventLog{}
	dataDir := t.TempDir()
	fx := &fixture{
		repo:    instance.NewStore(dataDir),
		dataDir: dataDir,
		source:  &fakeSource{t: t, apps: map[string]fakeApp{}},
		gateway: &fakeGateway{log: log, results: map[string]error{}, stdout: map[string][]string{}},
		sso:     &fakeSSO{log: log, urls: map[string]string{}},
		hooks:   &fakeHooks{log: log, installed: map[string]string{}},
		journal: &fakeJournal{},
		log:     log,
	}
	fx.manager = NewManager(Config{
		Repository:      fx.repo,
		Source:          fx.source,
		Scripts:         fx.gateway,
		Permissions:     fx.sso,
		Directory:       &fakeDirectory{domains: []string{"example.org", "example.com"}},
		Policy:          fakePolicy{},
		Hooks:           fx.hooks,
		Journal:         fx.journal,
		PlatformVersion: "11.2.0",
	})
	return fx
}

// mustInstall installs the app behind ref on the given location and returns
// the instance name.
func (fx *fixture) mustInstall(t *testing.T, ref string, domain string, path string) string {
	t.Helper()

	result, err := fx.manager.Install(context.Background(), api.InstallRequest{
		Ref:  ref,
		Args: map[string]string{"domain": domain, "path": path},
	})
	require.NoError(t, err)
	require.Equal(t, api.StateCommitted, result.State)
	return result.Instance
}

func TestLocationOf(t *testing.T) {
	domainArg := func(v string) api.ResolvedArgument {
		return api.ResolvedArgument{Name: "domain", Kind: api.ArgumentDomain, Value: v}
	}
	pathArg := func(v string) api.ResolvedArgument {
		return api.ResolvedArgument{Name: "path", Kind: api.ArgumentPath, Value: v}
	}

	domain, path, ok := locationOf(api.ResolvedArguments{domainArg("example.org"), pathArg("/blog/")})
	require.True(t, ok)
	assert.Equal(t, "example.org", domain)
	assert.Equal(t, "/blog/", path)

	// The claim is only well-defined with exactly one of each kind.
	_, _, ok = locationOf(api.ResolvedArguments{domainArg("example.org")})
	assert.False(t, ok)
	_, _, ok = locationOf(api.ResolvedArguments{
		domainArg("example.org"), domainArg("example.com"), pathArg("/blog/"),
	})
	assert.False(t, ok)
	_, _, ok = locationOf(api.ResolvedArguments{domainArg(""), pathArg("/blog/")})
	assert.False(t, ok)
	_, _, ok = locationOf(nil)
	assert.False(t, ok)
}

func TestInterruptedMapsContextErrors(t *testing.T) {
	m := &Manager{}

	err := m.interrupted(context.Canceled, "install", "hello")
	assert.True(t, api.IsInterrupted(err))
	assert.Contains(t, err.Error(), "install of hello was interrupted")

	err = m.interrupted(context.DeadlineExceeded, "upgrade", "hello")
	assert.True(t, api.IsInterrupted(err))

	plain := fmt.Errorf("exit status 1")
	assert.Equal(t, plain, m.interrupted(plain, "install", "hello"))
}

func TestManagerWithoutJournal(t *testing.T) {
	fx := newFixture(t)
	fx.manager.journal = nil
	fx.source.apps["hello"] = webApp("hello", "1.0", false)

	// Every operation must survive a nil journal.
	name := fx.mustInstall(t, "hello", "example.org", "/blog")
	_, err := fx.manager.Remove(context.Background(), api.RemoveRequest{Instance: name})
	require.NoError(t, err)
}
