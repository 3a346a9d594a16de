// Package arguments resolves an action's declared argument specs against
// caller-supplied values, with interactive prompting as the fallback,
// and projects the resolved values into the positional list and environment
// mapping lifecycle scripts consume.
package arguments

import (
	"context"
	"fmt"
	"strings"

	"steward/internal/api"
	"steward/pkg/logging"
)

// Asker supplies interactive answers for arguments the caller left out.
// A nil Asker means resolution runs declaratively: missing values fall
// straight through to defaults.
type Asker interface {
	// Ask displays the prompt and reads one line. An empty answer means the
	// user wants the default.
	Ask(ctx context.Context, prompt string) (string, error)

	// AskSecret reads one line without echoing it.
	AskSecret(ctx context.Context, prompt string) (string, error)
}

// Resolver resolves argument specs with the identity directory, password
// policy, and instance repository as validation collaborators.
type Resolver struct {
	directory api.IdentityDirectory
	policy    api.PasswordPolicy
	repo      api.Repository
	asker     Asker
}

// NewResolver creates a resolver. asker may be nil for declarative
// resolution.
func NewResolver(directory api.IdentityDirectory, policy api.PasswordPolicy, repo api.Repository, asker Asker) *Resolver {
	return &Resolver{
		directory: directory,
		policy:    policy,
		repo:      repo,
		asker:     asker,
	}
}

// Resolve resolves every spec in declaration order and returns the ordered
// result. ignoreInstance excludes one instance from the domain/path conflict
// check, for re-resolving the arguments of an already installed instance;
// pass "" for a fresh installation.
//
// Resolution is pure with respect to durable state: it reads the directory,
// the policy, and the repository, but writes nothing.
func (r *Resolver) Resolve(ctx context.Context, specs []api.ArgumentSpec, values map[string]string, ignoreInstance string) (api.ResolvedArguments, error) {
	resolved := make(api.ResolvedArguments, 0, len(specs))

	for _, spec := range specs {
		value, err := r.resolveOne(ctx, spec, values)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, api.ResolvedArgument{
			Name:  spec.Name,
			Kind:  spec.EffectiveKind(),
			Value: value,
		})
	}

	if err := r.checkLocation(resolved, ignoreInstance); err != nil {
		return nil, err
	}

	logging.Debug("Arguments", "Resolved %d arguments", len(resolved))
	return resolved, nil
}

// resolveOne runs the caller-value / prompt / default / validation pipeline
// for a single spec.
func (r *Resolver) resolveOne(ctx context.Context, spec api.ArgumentSpec, values map[string]string) (string, error) {
	value, have := values[spec.Name]

	if !have && r.asker != nil && spec.Ask != "" {
		answer, err := r.prompt(ctx, spec)
		if err != nil {
			return "", err
		}
		// Empty input falls through to the default.
		if answer != "" {
			value, have = answer, true
		}
	}

	if !have && spec.Default != nil {
		value, have = renderDefault(spec.Default), true
	}

	if !have {
		if spec.Optional {
			// Recorded as "" rather than omitted, so the positional
			// argument list keeps its declared shape.
			return "", nil
		}
		return "", &api.ArgumentRequiredError{Name: spec.Name}
	}

	return r.validate(ctx, spec, value)
}

// prompt asks for one value interactively, with type-specific hints.
func (r *Resolver) prompt(ctx context.Context, spec api.ArgumentSpec) (string, error) {
	text, err := r.promptText(ctx, spec)
	if err != nil {
		return "", err
	}

	if spec.EffectiveKind() == api.ArgumentPassword {
		return r.asker.AskSecret(ctx, text)
	}
	return r.asker.Ask(ctx, text)
}

// promptText builds the prompt line for a spec.
func (r *Resolver) promptText(ctx context.Context, spec api.ArgumentSpec) (string, error) {
	var b strings.Builder
	b.WriteString(spec.Ask)

	switch {
	case len(spec.Choices) > 0:
		fmt.Fprintf(&b, " [%s]", strings.Join(spec.Choices, " | "))
	case spec.EffectiveKind() == api.ArgumentBoolean:
		b.WriteString(" [yes | no]")
	case spec.EffectiveKind() == api.ArgumentDomain:
		domains, err := r.directory.ListDomains(ctx)
		if err != nil {
			return "", err
		}
		if len(domains) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(domains, " | "))
		}
	case spec.EffectiveKind() == api.ArgumentPassword:
		b.WriteString(" (a strong password is required)")
	}

	if spec.Default != nil {
		fmt.Fprintf(&b, " (default: %s)", renderDefault(spec.Default))
	}
	if spec.Example != "" {
		fmt.Fprintf(&b, " (example: %s)", spec.Example)
	}
	b.WriteString(": ")
	return b.String(), nil
}

// validate coerces and validates one present value according to its kind.
// Each kind carries its own validation; the kind set is closed.
func (r *Resolver) validate(ctx context.Context, spec api.ArgumentSpec, value string) (string, error) {
	if len(spec.Choices) > 0 && !containsString(spec.Choices, value) {
		return "", &api.ArgumentInvalidError{
			Name:   spec.Name,
			Reason: fmt.Sprintf("%q is not among the available choices (%s)", value, strings.Join(spec.Choices, ", ")),
		}
	}

	switch spec.EffectiveKind() {
	case api.ArgumentString:
		return value, nil

	case api.ArgumentBoolean:
		coerced, ok := CoerceBoolean(value)
		if !ok {
			return "", &api.ArgumentInvalidError{
				Name:   spec.Name,
				Reason: fmt.Sprintf("%q is not a boolean value (expected yes/no)", value),
			}
		}
		return coerced, nil

	case api.ArgumentDomain:
		domain := NormalizeDomain(value)
		domains, err := r.directory.ListDomains(ctx)
		if err != nil {
			return "", err
		}
		if !containsString(domains, domain) {
			return "", &api.ArgumentInvalidError{
				Name:   spec.Name,
				Reason: fmt.Sprintf("domain %q is unknown to this server", domain),
			}
		}
		return domain, nil

	case api.ArgumentPath:
		return NormalizePath(value), nil

	case api.ArgumentUser:
		if _, err := r.directory.ResolveUser(ctx, value); err != nil {
			if api.IsNotFound(err) {
				return "", &api.ArgumentInvalidError{
					Name:   spec.Name,
					Reason: fmt.Sprintf("user %q does not exist", value),
				}
			}
			return "", err
		}
		return value, nil

	case api.ArgumentApp:
		if !r.repo.Exists(value) {
			return "", &api.ArgumentInvalidError{
				Name:   spec.Name,
				Reason: fmt.Sprintf("no installed app instance named %q", value),
			}
		}
		return value, nil

	case api.ArgumentPassword:
		if err := r.policy.AssertStrongEnough(ctx, value); err != nil {
			if api.IsWeakPassword(err) {
				return "", &api.ArgumentInvalidError{Name: spec.Name, Reason: err.Error()}
			}
			return "", err
		}
		return value, nil
	}

	// Unreachable for manifests that passed parsing, which rejects unknown
	// kinds.
	return "", &api.ArgumentInvalidError{
		Name:   spec.Name,
		Reason: fmt.Sprintf("unknown argument kind %q", spec.Kind),
	}
}

// checkLocation performs the domain/path co-resolution: when exactly one
// domain-kind and one path-kind argument were resolved, their pair must not
// collide with any other instance's claim. The normalized values replace the
// raw ones in place.
func (r *Resolver) checkLocation(resolved api.ResolvedArguments, ignoreInstance string) error {
	domainIdx, pathIdx := -1, -1
	domainCount, pathCount := 0, 0
	for i, arg := range resolved {
		switch arg.Kind {
		case api.ArgumentDomain:
			domainIdx = i
			domainCount++
		case api.ArgumentPath:
			pathIdx = i
			pathCount++
		}
	}
	if domainCount != 1 || pathCount != 1 {
		return nil
	}

	domain := NormalizeDomain(resolved[domainIdx].Value)
	path := NormalizePath(resolved[pathIdx].Value)

	locations, err := r.repo.Locations()
	if err != nil {
		return err
	}
	if err := CheckAvailability(domain, path, locations, ignoreInstance); err != nil {
		return err
	}

	resolved[domainIdx].Value = domain
	resolved[pathIdx].Value = path
	return nil
}

// CoerceBoolean maps the accepted boolean spellings to the canonical "1" or
// "0". ok is false for anything outside the accepted sets.
func CoerceBoolean(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "1", "true":
		return "1", true
	case "no", "n", "0", "false":
		return "0", true
	}
	return "", false
}

// renderDefault turns a manifest default (string, bool, or number) into its
// string form for resolution.
func renderDefault(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
