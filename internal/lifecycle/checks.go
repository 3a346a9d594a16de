package lifecycle

import (
	"context"
	"fmt"
	"net"

	"steward/internal/api"
	"steward/internal/arguments"
)

// CheckURL reports whether an app could claim the given (domain, path). It
// is a pure query: nothing is reserved, and two callers checking the same
// location both see it as free until one of them installs.
func (m *Manager) CheckURL(ctx context.Context, domain string, path string) error {
	domain = arguments.NormalizeDomain(domain)
	path = arguments.NormalizePath(path)

	domains, err := m.directory.ListDomains(ctx)
	if err != nil {
		return err
	}
	if !containsString(domains, domain) {
		return &api.ArgumentInvalidError{
			Name:   "domain",
			Reason: fmt.Sprintf("domain %s is unknown to this server", domain),
		}
	}

	locations, err := m.repo.Locations()
	if err != nil {
		return err
	}
	return arguments.CheckAvailability(domain, path, locations, "")
}

// CheckPort reports whether a local TCP port is free by binding it. The
// listener is closed right away, so the answer is only a snapshot.
func (m *Manager) CheckPort(port int) error {
	if port < 1 || port > 65535 {
		return &api.ArgumentInvalidError{
			Name:   "port",
			Reason: fmt.Sprintf("%d is outside the TCP port range", port),
		}
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("port %d is not available: %w", port, err)
	}
	return ln.Close()
}
