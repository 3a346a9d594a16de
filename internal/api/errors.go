package api

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError represents a resource not found error with contextual
// information. It is shared by every lookup surface (instances, users,
// domains, catalog entries) so callers can test for the condition with a
// single predicate.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found
	// (e.g., "instance", "user", "domain", "catalog entry").
	ResourceType string

	// ResourceName is the specific identifier of the resource.
	ResourceName string

	// Message provides a custom error message if the default format is
	// insufficient.
	Message string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is a NotFoundError using error unwrapping.
//
// Example:
//
//	inst, err := repo.Load(name)
//	if api.IsNotFound(err) {
//	    // Handle not found case
//	}
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// NewNotFoundError creates a new NotFoundError with the specified resource
// type and name.
func NewNotFoundError(resourceType, resourceName string) *NotFoundError {
	return &NotFoundError{
		ResourceType: resourceType,
		ResourceName: resourceName,
	}
}

// Specific NotFoundError constructors for each resource type.
var (
	// NewInstanceNotFoundError creates an installed-instance not found error.
	NewInstanceNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("instance", name)
	}

	// NewUserNotFoundError creates a directory user not found error.
	NewUserNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("user", name)
	}

	// NewDomainNotFoundError creates a domain not found error.
	NewDomainNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("domain", name)
	}

	// NewCatalogEntryNotFoundError creates a catalog entry not found error.
	NewCatalogEntryNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("catalog entry", name)
	}

	// NewPermissionNotFoundError creates a permission record not found error.
	NewPermissionNotFoundError = func(name string) *NotFoundError {
		return NewNotFoundError("permission", name)
	}
)

// SourceFetchError reports a failed source acquisition. Terminal: nothing
// durable has been written when it occurs.
type SourceFetchError struct {
	Ref    string
	Reason error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("failed to fetch app source %q: %v", e.Ref, e.Reason)
}

func (e *SourceFetchError) Unwrap() error { return e.Reason }

// IsSourceFetchFailed reports whether err is or wraps a SourceFetchError.
func IsSourceFetchFailed(err error) bool {
	var target *SourceFetchError
	return errors.As(err, &target)
}

// ManifestError reports an invalid manifest, carrying every problem found so
// packagers can fix them in one pass.
type ManifestError struct {
	Problems []string
}

func (e *ManifestError) Error() string {
	switch len(e.Problems) {
	case 0:
		return "invalid manifest"
	case 1:
		return fmt.Sprintf("invalid manifest: %s", e.Problems[0])
	default:
		return fmt.Sprintf("invalid manifest: %s", strings.Join(e.Problems, "; "))
	}
}

// IsManifestInvalid reports whether err is or wraps a ManifestError.
func IsManifestInvalid(err error) bool {
	var target *ManifestError
	return errors.As(err, &target)
}

// RequirementViolation is one unsatisfied dependency requirement.
type RequirementViolation struct {
	Dependency string
	Specifier  string
	Installed  string
	Reason     string
}

func (v RequirementViolation) String() string {
	if v.Installed == "" {
		return fmt.Sprintf("%s %s: %s", v.Dependency, v.Specifier, v.Reason)
	}
	return fmt.Sprintf("%s %s (installed: %s): %s", v.Dependency, v.Specifier, v.Installed, v.Reason)
}

// RequirementsError reports manifest requirements the platform cannot
// satisfy. Terminal and pre-durable, like ManifestError.
type RequirementsError struct {
	App        string
	Violations []RequirementViolation
}

func (e *RequirementsError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("app %s has unmet requirements: %s", e.App, strings.Join(parts, "; "))
}

// IsRequirementsUnmet reports whether err is or wraps a RequirementsError.
func IsRequirementsUnmet(err error) bool {
	var target *RequirementsError
	return errors.As(err, &target)
}

// AlreadyInstalledError reports an attempt to install a second instance of
// an app whose manifest does not declare multi_instance.
type AlreadyInstalledError struct {
	App string
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("app %s is already installed and does not support multiple instances", e.App)
}

// IsAlreadyInstalled reports whether err is or wraps an AlreadyInstalledError.
func IsAlreadyInstalled(err error) bool {
	var target *AlreadyInstalledError
	return errors.As(err, &target)
}

// ArgumentRequiredError reports a non-optional argument with no caller value,
// no successful prompt, and no default.
type ArgumentRequiredError struct {
	Name string
}

func (e *ArgumentRequiredError) Error() string {
	return fmt.Sprintf("argument %s is required", e.Name)
}

// IsArgumentRequired reports whether err is or wraps an ArgumentRequiredError.
func IsArgumentRequired(err error) bool {
	var target *ArgumentRequiredError
	return errors.As(err, &target)
}

// ArgumentInvalidError reports a value that failed its kind's validation.
type ArgumentInvalidError struct {
	Name   string
	Reason string
}

func (e *ArgumentInvalidError) Error() string {
	return fmt.Sprintf("invalid value for argument %s: %s", e.Name, e.Reason)
}

// IsArgumentInvalid reports whether err is or wraps an ArgumentInvalidError.
func IsArgumentInvalid(err error) bool {
	var target *ArgumentInvalidError
	return errors.As(err, &target)
}

// LocationConflictError reports a (domain, path) claim that collides with
// existing instances, either exactly or by slash-boundary prefix overlap.
// Every conflicting claim is listed.
type LocationConflictError struct {
	Domain    string
	Path      string
	Conflicts []Location
}

func (e *LocationConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("location %s%s is not available, conflicts with: %s",
		e.Domain, e.Path, strings.Join(parts, ", "))
}

// IsLocationConflict reports whether err is or wraps a LocationConflictError.
func IsLocationConflict(err error) bool {
	var target *LocationConflictError
	return errors.As(err, &target)
}

// ScriptError reports a lifecycle script that exited non-zero.
type ScriptError struct {
	Script   string
	ExitCode int
	Reason   error
}

func (e *ScriptError) Error() string {
	if e.Reason != nil && e.ExitCode == 0 {
		return fmt.Sprintf("script %s failed: %v", e.Script, e.Reason)
	}
	return fmt.Sprintf("script %s failed with exit code %d", e.Script, e.ExitCode)
}

func (e *ScriptError) Unwrap() error { return e.Reason }

// IsScriptFailed reports whether err is or wraps a ScriptError.
func IsScriptFailed(err error) bool {
	var target *ScriptError
	return errors.As(err, &target)
}

// InterruptedError reports an operation cancelled mid-flight (signal or
// context cancellation). It drives the same rollback path as a script
// failure but is reported distinctly.
type InterruptedError struct {
	Operation string
	Instance  string
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("%s of %s was interrupted", e.Operation, e.Instance)
}

// IsInterrupted reports whether err is or wraps an InterruptedError.
func IsInterrupted(err error) bool {
	var target *InterruptedError
	return errors.As(err, &target)
}

// RollbackError reports a compensating rollback that itself ran into
// trouble. It is warning-level: it never replaces the original operation
// error, which callers receive separately.
type RollbackError struct {
	Instance string
	Problems []string
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of %s was incomplete: %s", e.Instance, strings.Join(e.Problems, "; "))
}

// IsRollbackFailed reports whether err is or wraps a RollbackError.
func IsRollbackFailed(err error) bool {
	var target *RollbackError
	return errors.As(err, &target)
}

// WeakPasswordError reports a password rejected by the policy.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password is too weak: %s", e.Reason)
}

// IsWeakPassword reports whether err is or wraps a WeakPasswordError.
func IsWeakPassword(err error) bool {
	var target *WeakPasswordError
	return errors.As(err, &target)
}
