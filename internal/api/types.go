package api

import (
	"fmt"
	"time"
)

// ArgumentKind identifies the type of one declared argument. The set of kinds
// is closed: manifest parsing rejects unknown kinds, and each kind carries its
// own validation in the argument resolver.
type ArgumentKind string

const (
	// ArgumentString is a free-form string, optionally restricted by choices.
	ArgumentString ArgumentKind = "string"
	// ArgumentPassword is a secret string checked against the password policy.
	// Password values are projected into the script environment but never
	// persisted to instance settings.
	ArgumentPassword ArgumentKind = "password"
	// ArgumentBoolean accepts yes/y/1/true and no/n/0/false (case-insensitive).
	ArgumentBoolean ArgumentKind = "boolean"
	// ArgumentDomain must name a domain known to the identity directory.
	ArgumentDomain ArgumentKind = "domain"
	// ArgumentPath is a URL path, normalized to the /x/ form.
	ArgumentPath ArgumentKind = "path"
	// ArgumentUser must resolve to a user in the identity directory.
	ArgumentUser ArgumentKind = "user"
	// ArgumentApp must name a currently installed instance.
	ArgumentApp ArgumentKind = "app"
)

// KnownArgumentKinds lists every kind the manifest schema accepts, in a stable
// order suitable for error messages.
func KnownArgumentKinds() []ArgumentKind {
	return []ArgumentKind{
		ArgumentString,
		ArgumentPassword,
		ArgumentBoolean,
		ArgumentDomain,
		ArgumentPath,
		ArgumentUser,
		ArgumentApp,
	}
}

// Valid reports whether k is a member of the closed kind set.
func (k ArgumentKind) Valid() bool {
	for _, known := range KnownArgumentKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ArgumentSpec declares one input a lifecycle action needs.
//
// Specs are ordered: the declaration order inside a manifest action drives
// both the positional argument list and the resolution order.
type ArgumentSpec struct {
	// Name identifies the argument, unique within one action.
	Name string `json:"name"`

	// Kind selects the validation behavior. An empty kind means string.
	Kind ArgumentKind `json:"type,omitempty"`

	// Ask is the prompt shown when resolving interactively.
	Ask string `json:"ask,omitempty"`

	// Default is used when the caller supplies no value and the interactive
	// answer is empty or unavailable. Booleans may carry native bool defaults.
	Default interface{} `json:"default,omitempty"`

	// Choices restricts the value to a closed set when non-empty.
	Choices []string `json:"choices,omitempty"`

	// Optional arguments resolve to the empty string when absent instead of
	// failing, keeping the positional argument list stable.
	Optional bool `json:"optional,omitempty"`

	// Example is appended to interactive prompts as a hint.
	Example string `json:"example,omitempty"`
}

// EffectiveKind returns the spec's kind, defaulting empty to string.
func (s ArgumentSpec) EffectiveKind() ArgumentKind {
	if s.Kind == "" {
		return ArgumentString
	}
	return s.Kind
}

// Manifest is the declarative description of an app: identity, version,
// multi-instance capability, dependency requirements, and the argument
// specifications of each lifecycle action. A manifest is immutable once
// loaded for one operation.
type Manifest struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Version       string            `json:"version,omitempty"`
	URL           string            `json:"url,omitempty"`
	License       string            `json:"license,omitempty"`
	Maintainer    Maintainer        `json:"maintainer,omitempty"`
	MultiInstance bool              `json:"multi_instance,omitempty"`
	Requirements  map[string]string `json:"requirements,omitempty"`

	// MinVersion is the deprecated single-version requirement field, merged
	// into Requirements by RequirementsFor.
	MinVersion string `json:"min_version,omitempty"`

	Arguments map[string][]ArgumentSpec `json:"arguments"`
}

// Maintainer identifies who maintains an app package.
type Maintainer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ArgumentsFor returns the argument specs declared for the given action,
// in declaration order. A missing action yields an empty slice.
func (m *Manifest) ArgumentsFor(action string) []ArgumentSpec {
	if m == nil || m.Arguments == nil {
		return nil
	}
	return m.Arguments[action]
}

// Remote provenance types recorded in an instance's status.
const (
	RemoteTypeFile    = "file"
	RemoteTypeURL     = "url"
	RemoteTypeGit     = "git"
	RemoteTypeCatalog = "catalog"
)

// Remote records where an app's source tree came from, so upgrades can
// re-fetch it.
type Remote struct {
	Type     string `json:"type" yaml:"type"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// Refetchable reports whether the recorded provenance carries enough
// information to fetch the source again without caller input.
func (r Remote) Refetchable() bool {
	switch r.Type {
	case RemoteTypeURL, RemoteTypeGit:
		return r.URL != ""
	case RemoteTypeCatalog:
		return true
	default:
		return false
	}
}

// AppSource is the product of a source acquisition: the parsed manifest, the
// extracted tree on disk, and the provenance to record in status.
type AppSource struct {
	Manifest *Manifest
	Tree     string
	Remote   Remote
}

// Well-known instance settings keys.
const (
	SettingID          = "id"
	SettingLabel       = "label"
	SettingDomain      = "domain"
	SettingPath        = "path"
	SettingInstallTime = "install_time"
	SettingUpdateTime  = "update_time"
)

// InstanceSettings is the open key/value store persisted per instance as
// settings.yml. Apps are free to add their own keys; steward owns the
// well-known ones above.
type InstanceSettings map[string]interface{}

// GetString returns the named setting rendered as a string, or "" when the
// key is absent.
func (s InstanceSettings) GetString(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", v)
}

// Domain returns the bound domain, or "".
func (s InstanceSettings) Domain() string { return s.GetString(SettingDomain) }

// Path returns the bound URL path, or "".
func (s InstanceSettings) Path() string { return s.GetString(SettingPath) }

// Label returns the user-visible label, or "".
func (s InstanceSettings) Label() string { return s.GetString(SettingLabel) }

// Clone returns a shallow copy so callers can stage edits without mutating
// the loaded instance.
func (s InstanceSettings) Clone() InstanceSettings {
	out := make(InstanceSettings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// InstanceStatus is the status.json record of one instance: when it was
// installed and last upgraded, and where its source came from.
type InstanceStatus struct {
	InstalledAt time.Time `json:"installed_at"`
	UpgradedAt  time.Time `json:"upgraded_at,omitzero"`
	Remote      Remote    `json:"remote"`
}

// AppInstance is one installed deployment of an app. The instance directory
// on disk is the durable representation; loaded copies are transient.
type AppInstance struct {
	// Name is the unique instance name, e.g. "wordpress" or "wordpress__2".
	Name string

	// AppID is the base app slug shared by all instances of the app.
	AppID string

	// Number is the instance number, 1 for the first (unsuffixed) instance.
	Number int

	Settings InstanceSettings
	Status   InstanceStatus
	Manifest *Manifest
}

// Location is one instance's claim on a (domain, path) pair.
type Location struct {
	Domain   string
	Path     string
	Instance string
}

func (l Location) String() string {
	return fmt.Sprintf("%s%s (%s)", l.Domain, l.Path, l.Instance)
}

// ResolvedArgument is one argument's final value after resolution.
type ResolvedArgument struct {
	Name  string
	Kind  ArgumentKind
	Value string
}

// ResolvedArguments is the ordered product of argument resolution for one
// action invocation. It is never mutated after resolution.
type ResolvedArguments []ResolvedArgument

// Get returns the value resolved under name.
func (ra ResolvedArguments) Get(name string) (string, bool) {
	for _, a := range ra {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Values returns the argument values in declaration order.
func (ra ResolvedArguments) Values() []string {
	out := make([]string, 0, len(ra))
	for _, a := range ra {
		out = append(out, a.Value)
	}
	return out
}

// User is one account resolved through the identity directory.
type User struct {
	Username string `json:"username" yaml:"username"`
	Fullname string `json:"fullname,omitempty" yaml:"fullname,omitempty"`
	Mail     string `json:"mail,omitempty" yaml:"mail,omitempty"`
}

// OperationState tracks where a lifecycle operation is in its state machine.
type OperationState string

const (
	StateAcquiring           OperationState = "acquiring"
	StateRequirementsChecked OperationState = "requirements-checked"
	StateArgumentsResolved   OperationState = "arguments-resolved"
	StateSettingsPersisted   OperationState = "settings-persisted"
	StateScriptRunning       OperationState = "script-running"
	StateCommitted           OperationState = "committed"
	StateRollingBack         OperationState = "rolling-back"
	StateRolledBack          OperationState = "rolled-back"
	StateFailed              OperationState = "failed"
)

// Terminal reports whether the state machine stops in this state.
func (s OperationState) Terminal() bool {
	switch s {
	case StateCommitted, StateRolledBack, StateFailed:
		return true
	default:
		return false
	}
}

// OperationResult is the explicit outcome of one lifecycle operation: the
// terminal state, the primary error (nil on success), and any warnings from
// best-effort compensation steps that were deliberately not promoted to
// errors (for example a failing remove script during rollback).
type OperationResult struct {
	Operation string
	Instance  string
	State     OperationState
	Err       error
	Warnings  []string
}

// AddWarning records a suppressed sub-error.
func (r *OperationResult) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Failed reports whether the operation ended with a primary error.
func (r *OperationResult) Failed() bool {
	return r.Err != nil
}
