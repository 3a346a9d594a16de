package instance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ParsePath(t *testing.T) {
	watcher := NewWatcher("/var/lib/steward/apps", 100*time.Millisecond)

	tests := []struct {
		name          string
		path          string
		expectedName  string
		expectedDepth int
	}{
		{
			name:          "instance directory",
			path:          "/var/lib/steward/apps/wordpress",
			expectedName:  "wordpress",
			expectedDepth: 1,
		},
		{
			name:          "numbered instance directory",
			path:          "/var/lib/steward/apps/wordpress__2",
			expectedName:  "wordpress__2",
			expectedDepth: 1,
		},
		{
			name:          "settings file",
			path:          "/var/lib/steward/apps/wiki/settings.yml",
			expectedName:  "wiki",
			expectedDepth: 2,
		},
		{
			name:          "nested script file",
			path:          "/var/lib/steward/apps/wiki/scripts/install",
			expectedName:  "wiki",
			expectedDepth: 3,
		},
		{
			name: "root itself",
			path: "/var/lib/steward/apps",
		},
		{
			name: "outside root",
			path: "/etc/passwd",
		},
		{
			name: "hidden directory",
			path: "/var/lib/steward/apps/.staging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, depth := watcher.parsePath(tt.path)
			if name != tt.expectedName {
				t.Errorf("expected name %q, got %q", tt.expectedName, name)
			}
			if depth != tt.expectedDepth {
				t.Errorf("expected depth %d, got %d", tt.expectedDepth, depth)
			}
		})
	}
}

func TestWatcher_MergeOperations(t *testing.T) {
	tests := []struct {
		old      ChangeOperation
		new      ChangeOperation
		expected ChangeOperation
	}{
		{OperationCreate, OperationUpdate, OperationCreate},
		{OperationCreate, OperationDelete, OperationDelete},
		{OperationUpdate, OperationUpdate, OperationUpdate},
		{OperationUpdate, OperationDelete, OperationDelete},
		{OperationDelete, OperationCreate, OperationCreate},
	}

	for _, tt := range tests {
		t.Run(string(tt.old)+"_"+string(tt.new), func(t *testing.T) {
			if got := mergeOperations(tt.old, tt.new); got != tt.expected {
				t.Errorf("mergeOperations(%s, %s) = %s, want %s", tt.old, tt.new, got, tt.expected)
			}
		})
	}
}

func TestWatcher_StartStop(t *testing.T) {
	watcher := NewWatcher(t.TempDir(), 100*time.Millisecond)

	ctx := context.Background()
	changes := make(chan ChangeEvent, 10)

	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	// A second Start on a running watcher is a no-op.
	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("second start returned error: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Fatalf("failed to stop watcher: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Fatalf("second stop returned error: %v", err)
	}
}

func TestWatcher_DetectInstanceCreation(t *testing.T) {
	root := t.TempDir()
	watcher := NewWatcher(root, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan ChangeEvent, 10)
	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	store := NewStore(root)
	if err := store.SaveSettings("wordpress__2", map[string]interface{}{"id": "wordpress"}); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	select {
	case event := <-changes:
		if event.Instance != "wordpress__2" {
			t.Errorf("expected instance wordpress__2, got %s", event.Instance)
		}
		if event.Operation != OperationCreate {
			t.Errorf("expected operation Create, got %s", event.Operation)
		}
	case <-ctx.Done():
		t.Error("timeout waiting for change event")
	}
}

func TestWatcher_DetectSettingsUpdate(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	if err := store.SaveSettings("wiki", map[string]interface{}{"id": "wiki"}); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	watcher := NewWatcher(root, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan ChangeEvent, 10)
	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	if err := store.SaveSettings("wiki", map[string]interface{}{"id": "wiki", "label": "Wiki"}); err != nil {
		t.Fatalf("failed to update settings: %v", err)
	}

	select {
	case event := <-changes:
		if event.Instance != "wiki" {
			t.Errorf("expected instance wiki, got %s", event.Instance)
		}
		if event.Operation != OperationUpdate {
			t.Errorf("expected operation Update, got %s", event.Operation)
		}
	case <-ctx.Done():
		t.Error("timeout waiting for change event")
	}
}

func TestWatcher_IgnoresScriptChanges(t *testing.T) {
	root := t.TempDir()
	scriptsDir := filepath.Join(root, "wiki", "scripts")
	if err := os.MkdirAll(scriptsDir, 0755); err != nil {
		t.Fatalf("failed to create scripts dir: %v", err)
	}

	watcher := NewWatcher(root, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	changes := make(chan ChangeEvent, 10)
	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// The instance directory itself is watched, scripts/ content is not
	// metadata, so no event should surface.
	if err := os.WriteFile(filepath.Join(root, "wiki", "README"), []byte("hi"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case event := <-changes:
		t.Errorf("unexpected event: %s %s", event.Operation, event.Instance)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresRootLevelFiles(t *testing.T) {
	root := t.TempDir()
	watcher := NewWatcher(root, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	changes := make(chan ChangeEvent, 10)
	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// The permission registry and journal records live flat in the root.
	path := filepath.Join(root, "permissions.yml")
	if err := os.WriteFile(path, []byte("permissions: {}\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	select {
	case event := <-changes:
		t.Errorf("unexpected event: %s %s", event.Operation, event.Instance)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_Debouncing(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	if err := store.SaveSettings("blog", map[string]interface{}{"id": "blog"}); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	watcher := NewWatcher(root, 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan ChangeEvent, 10)
	if err := watcher.Start(ctx, changes); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer watcher.Stop()

	// Rapid successive settings writes, like a script run produces.
	for i := 0; i < 5; i++ {
		time.Sleep(10 * time.Millisecond)
		if err := store.SaveSettings("blog", map[string]interface{}{"id": "blog", "rev": i}); err != nil {
			t.Fatalf("failed to update settings: %v", err)
		}
	}

	eventCount := 0
	timeout := time.After(600 * time.Millisecond)
loop:
	for {
		select {
		case <-changes:
			eventCount++
		case <-timeout:
			break loop
		}
	}

	// Should have received only 1 debounced event (or possibly 2 if timing is tight)
	if eventCount > 2 {
		t.Errorf("expected 1-2 debounced events, got %d", eventCount)
	}
	if eventCount == 0 {
		t.Error("expected at least one change event")
	}
}
