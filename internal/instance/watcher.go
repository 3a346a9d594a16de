package instance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"steward/pkg/logging"
)

// ChangeOperation describes what happened to an instance directory.
type ChangeOperation string

const (
	OperationCreate ChangeOperation = "create"
	OperationUpdate ChangeOperation = "update"
	OperationDelete ChangeOperation = "delete"
)

// metadataFiles are the files inside an instance directory whose changes
// count as an update of the instance. Script or conf edits do not.
var metadataFiles = map[string]bool{
	settingsFile: true,
	statusFile:   true,
	manifestFile: true,
}

// ChangeEvent reports a change to one installed instance.
type ChangeEvent struct {
	Instance  string
	Operation ChangeOperation
	Timestamp time.Time
	Path      string
}

// Watcher watches the instance root and emits debounced change events.
//
// Script runs touch settings and status several times in quick succession,
// so raw fsnotify events are coalesced per instance before being emitted.
type Watcher struct {
	mu sync.Mutex

	// root is the directory holding one subdirectory per instance
	root string

	// watcher is the fsnotify watcher instance
	watcher *fsnotify.Watcher

	// debounceInterval is how long to wait for additional changes
	debounceInterval time.Duration

	// pendingEvents tracks pending debounced events per instance
	pendingEvents map[string]*debounceEntry

	// known tracks the instance directories currently watched. The root
	// also holds flat files (permission registry, journal records) whose
	// events must not surface as instances.
	known map[string]bool

	// stopCh signals shutdown
	stopCh chan struct{}

	// running indicates if the watcher is active
	running bool
}

// debounceEntry tracks a pending event for debouncing.
type debounceEntry struct {
	event ChangeEvent
	timer *time.Timer
}

// NewWatcher creates a watcher over the given instance root.
func NewWatcher(root string, debounceInterval time.Duration) *Watcher {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}

	return &Watcher{
		root:             root,
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[string]*debounceEntry),
		known:            make(map[string]bool),
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching for instance changes.
func (w *Watcher) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	if err := w.setupWatches(); err != nil {
		w.Stop()
		return err
	}

	go w.processEvents(ctx, changes)

	logging.Info("Instances", "Started watching %s for instance changes", w.root)
	return nil
}

// setupWatches watches the root plus every existing instance directory.
func (w *Watcher) setupWatches() error {
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		w.markKnown(entry.Name())
		if err := w.watcher.Add(filepath.Join(w.root, entry.Name())); err != nil {
			logging.Warn("Instances", "Failed to watch instance %s: %v", entry.Name(), err)
		}
	}

	return nil
}

func (w *Watcher) markKnown(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.known[name] = true
}

func (w *Watcher) forgetKnown(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.known[name] {
		return false
	}
	delete(w.known, name)
	return true
}

// processEvents handles filesystem events and generates change events.
func (w *Watcher) processEvents(ctx context.Context, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			w.cleanupPendingEvents()
			return

		case <-w.stopCh:
			w.cleanupPendingEvents()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event, changes)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Instances", err, "Filesystem watcher error")
		}
	}
}

// handleFsEvent processes a single filesystem event.
func (w *Watcher) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	name, depth := w.parsePath(event.Name)
	if name == "" {
		return
	}

	var operation ChangeOperation
	switch {
	case depth == 1 && event.Op&fsnotify.Create == fsnotify.Create:
		// Root-level files (permission registry, journal records) are
		// not instances.
		if info, err := os.Stat(event.Name); err != nil || !info.IsDir() {
			return
		}
		operation = OperationCreate
		w.markKnown(name)
		// Watch the new instance directory so metadata updates are seen.
		if err := w.watcher.Add(event.Name); err != nil {
			logging.Warn("Instances", "Failed to watch new instance %s: %v", name, err)
		}
	case depth == 1 && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// The entry is already gone, so only a tracked instance
		// directory counts.
		if !w.forgetKnown(name) {
			return
		}
		operation = OperationDelete
	case depth > 1 && metadataFiles[filepath.Base(event.Name)]:
		if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
			return
		}
		operation = OperationUpdate
	default:
		return
	}

	w.debounceEvent(ChangeEvent{
		Instance:  name,
		Operation: operation,
		Timestamp: time.Now(),
		Path:      event.Name,
	}, changes)
}

// debounceEvent coalesces rapid successive changes to the same instance.
func (w *Watcher) debounceEvent(event ChangeEvent, changes chan<- ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := event.Instance

	if entry, ok := w.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.event.Operation, event.Operation)
	}

	timer := time.AfterFunc(w.debounceInterval, func() {
		w.mu.Lock()
		entry, ok := w.pendingEvents[key]
		if ok {
			delete(w.pendingEvents, key)
		}
		w.mu.Unlock()

		if ok {
			select {
			case changes <- entry.event:
				logging.Debug("Instances", "Emitted change event: %s %s",
					entry.event.Operation, entry.event.Instance)
			default:
				logging.Warn("Instances", "Change event channel full, dropping event for %s",
					entry.event.Instance)
			}
		}
	})

	w.pendingEvents[key] = &debounceEntry{event: event, timer: timer}
}

// mergeOperations merges two operations into a single logical operation.
func mergeOperations(old, new ChangeOperation) ChangeOperation {
	if old == OperationCreate {
		if new == OperationDelete {
			// Create + Delete still emits Delete so consumers clean up.
			return OperationDelete
		}
		// Create + Update = Create
		return OperationCreate
	}

	if old == OperationUpdate && new == OperationDelete {
		return OperationDelete
	}

	return new
}

// parsePath extracts the instance name and the path depth below the root.
func (w *Watcher) parsePath(path string) (string, int) {
	relPath, err := filepath.Rel(w.root, path)
	if err != nil || relPath == "." || strings.HasPrefix(relPath, "..") {
		return "", 0
	}

	parts := strings.Split(relPath, string(filepath.Separator))
	if strings.HasPrefix(parts[0], ".") {
		return "", 0
	}

	return parts[0], len(parts)
}

// cleanupPendingEvents cancels all pending debounce timers.
func (w *Watcher) cleanupPendingEvents() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, entry := range w.pendingEvents {
		entry.timer.Stop()
	}
	w.pendingEvents = make(map[string]*debounceEntry)
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("Instances", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info("Instances", "Stopped instance watcher")
	return nil
}
