package arguments

import (
	"strings"

	"steward/internal/api"
)

// NormalizeDomain canonicalizes a domain value: lower-cased, surrounding
// whitespace removed. Idempotent.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// NormalizePath canonicalizes a URL path to the /x/ form: a leading and a
// trailing slash, repeated slashes collapsed. The empty path and "/" both
// normalize to "/". Idempotent.
func NormalizePath(path string) string {
	var parts []string
	for _, p := range strings.Split(strings.TrimSpace(path), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/") + "/"
}

// CheckAvailability verifies that the normalized (domain, path) pair collides
// with no existing instance location. Two paths on the same domain conflict
// when they are equal or one is a slash-boundary prefix of the other, in
// either direction. Locations of the instance named by ignore are skipped,
// so an instance can be re-checked against everybody but itself.
//
// The check is pure: it never writes settings or any other durable state.
func CheckAvailability(domain, path string, existing []api.Location, ignore string) error {
	domain = NormalizeDomain(domain)
	path = NormalizePath(path)

	var conflicts []api.Location
	for _, loc := range existing {
		if ignore != "" && loc.Instance == ignore {
			continue
		}
		if NormalizeDomain(loc.Domain) != domain {
			continue
		}
		locPath := NormalizePath(loc.Path)
		// Normalized paths end with "/", so a plain prefix test only
		// matches at slash boundaries: /a/ overlaps /a/b/ but not /ab/.
		if strings.HasPrefix(locPath, path) || strings.HasPrefix(path, locPath) {
			conflicts = append(conflicts, loc)
		}
	}

	if len(conflicts) > 0 {
		return &api.LocationConflictError{Domain: domain, Path: path, Conflicts: conflicts}
	}
	return nil
}
