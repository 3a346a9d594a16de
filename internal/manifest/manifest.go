package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"steward/internal/api"
	"steward/pkg/logging"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"
)

// InstanceSeparator is the token that separates an app id from its instance
// number in instance names. App ids must never contain it.
const InstanceSeparator = "__"

// PlatformDependency is the requirements key naming the platform itself.
const PlatformDependency = "steward"

// multiInstanceMinimum is the platform version that introduced safe
// multi-instance numbering. Manifests declaring multi_instance get this
// requirement injected unconditionally, overriding any declared value for
// the platform key.
const multiInstanceMinimum = ">= 0.9.0"

// Filename is the manifest file name inside an app source tree and inside
// every installed instance directory.
const Filename = "manifest.json"

// Parse validates raw as an app manifest and decodes it.
//
// Validation happens in two passes: the JSON schema rejects structural
// problems (missing id, unknown argument types, malformed argument lists)
// with one problem per schema violation, then post-decode checks enforce
// duplicate argument names within an action and re-assert the instance
// separator ban. All problems are collected into a single
// api.ManifestError.
func Parse(raw []byte) (*api.Manifest, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &api.ManifestError{Problems: []string{fmt.Sprintf("not valid JSON: %v", err)}}
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(doc)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &api.ManifestError{Problems: problems}
	}

	var m api.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &api.ManifestError{Problems: []string{fmt.Sprintf("decoding: %v", err)}}
	}

	var problems []string
	if strings.Contains(m.ID, InstanceSeparator) {
		problems = append(problems, fmt.Sprintf("id %q contains the instance separator %q", m.ID, InstanceSeparator))
	}
	for action, specs := range m.Arguments {
		seen := map[string]bool{}
		for _, spec := range specs {
			if !spec.EffectiveKind().Valid() {
				problems = append(problems, fmt.Sprintf("arguments.%s: unknown type %q for %s", action, spec.Kind, spec.Name))
			}
			if seen[spec.Name] {
				problems = append(problems, fmt.Sprintf("arguments.%s: duplicate argument %s", action, spec.Name))
			}
			seen[spec.Name] = true
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &api.ManifestError{Problems: problems}
	}

	logging.Debug("Manifest", "Parsed manifest for %s (version %s)", m.ID, m.Version)
	return &m, nil
}

// RequirementsFor returns the effective dependency requirements of m.
//
// The deprecated min_version field is merged under the platform key when no
// explicit platform requirement exists. When the manifest declares
// multi_instance, the multi-instance minimum replaces the platform
// requirement unconditionally.
func RequirementsFor(m *api.Manifest) map[string]string {
	reqs := make(map[string]string, len(m.Requirements)+1)
	for dep, spec := range m.Requirements {
		reqs[dep] = spec
	}

	if m.MinVersion != "" {
		if _, declared := reqs[PlatformDependency]; !declared {
			reqs[PlatformDependency] = normalizeSpecifier(m.MinVersion)
		}
	}

	if m.MultiInstance {
		reqs[PlatformDependency] = multiInstanceMinimum
	}

	return reqs
}

// normalizeSpecifier turns a bare version ("2.4") into a minimum constraint
// (">= 2.4"). Strings that already carry an operator pass through.
func normalizeSpecifier(spec string) string {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return trimmed
	}
	switch trimmed[0] {
	case '>', '<', '=', '~', '^', '!':
		return trimmed
	}
	return ">= " + trimmed
}

// CheckRequirements verifies every requirement of m against the installed
// dependency versions. All violations are collected into a single
// api.RequirementsError so the operator sees everything at once.
func CheckRequirements(m *api.Manifest, installed map[string]string) error {
	reqs := RequirementsFor(m)
	if len(reqs) == 0 {
		return nil
	}

	deps := make([]string, 0, len(reqs))
	for dep := range reqs {
		deps = append(deps, dep)
	}
	sort.Strings(deps)

	var violations []api.RequirementViolation
	for _, dep := range deps {
		spec := reqs[dep]
		constraint, err := semver.NewConstraint(spec)
		if err != nil {
			violations = append(violations, api.RequirementViolation{
				Dependency: dep,
				Specifier:  spec,
				Reason:     fmt.Sprintf("invalid version specifier: %v", err),
			})
			continue
		}

		current, ok := installed[dep]
		if !ok {
			violations = append(violations, api.RequirementViolation{
				Dependency: dep,
				Specifier:  spec,
				Reason:     "not installed",
			})
			continue
		}

		version, err := semver.NewVersion(current)
		if err != nil {
			violations = append(violations, api.RequirementViolation{
				Dependency: dep,
				Specifier:  spec,
				Installed:  current,
				Reason:     fmt.Sprintf("installed version is not semver: %v", err),
			})
			continue
		}

		if !constraint.Check(version) {
			violations = append(violations, api.RequirementViolation{
				Dependency: dep,
				Specifier:  spec,
				Installed:  current,
				Reason:     "version requirement not satisfied",
			})
		}
	}

	if len(violations) > 0 {
		return &api.RequirementsError{App: m.ID, Violations: violations}
	}

	logging.Debug("Manifest", "Requirements satisfied for %s", m.ID)
	return nil
}
