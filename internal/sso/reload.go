package sso

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"

	"steward/pkg/logging"
)

// SystemdReloader reloads the gateway's systemd unit over the system dbus.
type SystemdReloader struct {
	unit string
}

// NewSystemdReloader creates a reloader for the given unit name.
func NewSystemdReloader(unit string) *SystemdReloader {
	return &SystemdReloader{unit: unit}
}

// Reload asks systemd to reload the unit, restarting it when the unit has no
// reload action. It blocks until systemd reports the job's outcome.
func (r *SystemdReloader) Reload(ctx context.Context) error {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	done := make(chan string, 1)
	if _, err := conn.ReloadOrRestartUnitContext(ctx, r.unit, "replace", done); err != nil {
		return fmt.Errorf("failed to reload %s: %w", r.unit, err)
	}

	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("reload of %s finished with result %q", r.unit, result)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	logging.Info(subsystem, "Reloaded gateway unit %s", r.unit)
	return nil
}
