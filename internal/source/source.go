// Package source turns user-supplied references into extracted app trees.
//
// A reference may be a local directory, a local tar archive, a direct URL
// (tarball or git), or an app id looked up in the catalog. Every mode stages
// the tree under a scratch directory and records the provenance needed to
// fetch the same source again on upgrade.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"steward/internal/api"
	"steward/internal/catalog"
	"steward/internal/manifest"
	"steward/pkg/logging"
)

const subsystem = "Source"

// Acquirer implements api.SourceAcquirer.
type Acquirer struct {
	catalog *catalog.Manager
	staging string
	client  *http.Client
}

// NewAcquirer creates an acquirer staging trees under stagingDir. The
// catalog may be nil, which disables id references.
func NewAcquirer(cat *catalog.Manager, stagingDir string) *Acquirer {
	return &Acquirer{
		catalog: cat,
		staging: stagingDir,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Fetch acquires the source behind ref. The returned tree is a fresh staging
// directory owned by the caller, which removes it once the operation is over.
func (a *Acquirer) Fetch(ctx context.Context, ref string) (*api.AppSource, error) {
	src, err := a.fetch(ctx, ref)
	if err != nil {
		var fetchErr *api.SourceFetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &api.SourceFetchError{Ref: ref, Reason: err}
	}

	logging.Info(subsystem, "Fetched %s (%s) into %s", src.Manifest.ID, src.Remote.Type, src.Tree)
	return src, nil
}

func (a *Acquirer) fetch(ctx context.Context, ref string) (*api.AppSource, error) {
	if info, err := os.Stat(ref); err == nil {
		if info.IsDir() {
			return a.fromDirectory(ref)
		}
		if isArchiveName(ref) {
			return a.fromArchive(ref)
		}
		return nil, fmt.Errorf("%s is neither a directory nor a tar archive", ref)
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if strings.HasSuffix(ref, ".git") {
			return a.fromGit(ctx, ref, "")
		}
		return a.fromURL(ctx, ref)
	}

	return a.fromCatalog(ctx, ref)
}

// fromDirectory copies a local app directory into a staging tree.
func (a *Acquirer) fromDirectory(dir string) (*api.AppSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	stage, err := a.newStage()
	if err != nil {
		return nil, err
	}
	if err := os.CopyFS(stage, os.DirFS(abs)); err != nil {
		os.RemoveAll(stage)
		return nil, fmt.Errorf("failed to copy %s: %w", abs, err)
	}

	return a.finish(stage, api.Remote{Type: api.RemoteTypeFile, Path: abs})
}

// fromArchive extracts a local tarball into a staging tree.
func (a *Acquirer) fromArchive(archive string) (*api.AppSource, error) {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return nil, err
	}

	stage, err := a.newStage()
	if err != nil {
		return nil, err
	}
	if err := extractTar(abs, stage); err != nil {
		os.RemoveAll(stage)
		return nil, err
	}

	return a.finish(stage, api.Remote{Type: api.RemoteTypeFile, Path: abs})
}

// fromURL downloads a tarball and extracts it.
func (a *Acquirer) fromURL(ctx context.Context, url string) (*api.AppSource, error) {
	if err := os.MkdirAll(a.staging, 0755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(a.staging, "download-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := a.download(ctx, url, tmp); err != nil {
		return nil, err
	}

	stage, err := a.newStage()
	if err != nil {
		return nil, err
	}
	if err := extractTar(tmp.Name(), stage); err != nil {
		os.RemoveAll(stage)
		return nil, err
	}

	return a.finish(stage, api.Remote{Type: api.RemoteTypeURL, URL: url})
}

// fromGit shallow-clones a repository.
func (a *Acquirer) fromGit(ctx context.Context, url, branch string) (*api.AppSource, error) {
	stage, err := a.newStage()
	if err != nil {
		return nil, err
	}

	revision, err := cloneGit(ctx, url, branch, stage)
	if err != nil {
		os.RemoveAll(stage)
		return nil, err
	}

	return a.finish(stage, api.Remote{
		Type:     api.RemoteTypeGit,
		URL:      url,
		Branch:   branch,
		Revision: revision,
	})
}

// fromCatalog resolves an app id through the catalog and fetches its
// recorded remote.
func (a *Acquirer) fromCatalog(ctx context.Context, id string) (*api.AppSource, error) {
	if a.catalog == nil {
		return nil, fmt.Errorf("no catalog configured, cannot resolve %q", id)
	}

	entry, err := a.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var src *api.AppSource
	switch entry.Remote.Type {
	case api.RemoteTypeGit:
		src, err = a.fromGit(ctx, entry.Remote.URL, entry.Remote.Branch)
	case api.RemoteTypeURL:
		src, err = a.fromURL(ctx, entry.Remote.URL)
	case api.RemoteTypeFile:
		src, err = a.fromDirectory(entry.Remote.Path)
	default:
		return nil, fmt.Errorf("catalog entry %s has unsupported remote type %q", id, entry.Remote.Type)
	}
	if err != nil {
		return nil, err
	}

	// Record catalog provenance so upgrades re-resolve through the catalog
	// and pick up entry updates.
	src.Remote = api.Remote{
		Type:     api.RemoteTypeCatalog,
		URL:      entry.Remote.URL,
		Branch:   entry.Remote.Branch,
		Revision: src.Remote.Revision,
	}
	return src, nil
}

func (a *Acquirer) download(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned %s", url, resp.Status)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	return nil
}

// finish locates the manifest in the staged tree and assembles the source.
func (a *Acquirer) finish(stage string, remote api.Remote) (*api.AppSource, error) {
	tree := treeRoot(stage)

	raw, err := os.ReadFile(filepath.Join(tree, manifest.Filename))
	if err != nil {
		os.RemoveAll(stage)
		return nil, fmt.Errorf("source tree has no %s: %w", manifest.Filename, err)
	}

	m, err := manifest.Parse(raw)
	if err != nil {
		os.RemoveAll(stage)
		return nil, err
	}

	return &api.AppSource{Manifest: m, Tree: tree, Remote: remote}, nil
}

// treeRoot descends into a single wrapping directory, the shape tarball
// exports of a repository have.
func treeRoot(stage string) string {
	if _, err := os.Stat(filepath.Join(stage, manifest.Filename)); err == nil {
		return stage
	}

	entries, err := os.ReadDir(stage)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return stage
	}
	nested := filepath.Join(stage, entries[0].Name())
	if _, err := os.Stat(filepath.Join(nested, manifest.Filename)); err == nil {
		return nested
	}
	return stage
}

func (a *Acquirer) newStage() (string, error) {
	if err := os.MkdirAll(a.staging, 0755); err != nil {
		return "", err
	}
	return os.MkdirTemp(a.staging, "app-*")
}

func isArchiveName(name string) bool {
	return strings.HasSuffix(name, ".tar.gz") ||
		strings.HasSuffix(name, ".tgz") ||
		strings.HasSuffix(name, ".tar")
}
