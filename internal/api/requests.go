package api

// Request types for all lifecycle operations.

// InstallRequest represents a request to install an app.
//
// Example:
//
//	request := InstallRequest{
//	    Ref:   "wordpress",
//	    Label: "Blog",
//	    Args:  map[string]string{"domain": "example.org", "path": "/blog"},
//	}
type InstallRequest struct {
	// Ref is the source reference: local directory, archive, URL, or an app
	// id looked up in the catalog (required).
	Ref string `json:"ref"`

	// Label overrides the user-visible label. Defaults to the manifest name.
	Label string `json:"label,omitempty"`

	// Args supplies install-action argument values declaratively. Missing
	// arguments fall back to interactive prompting when available.
	Args map[string]string `json:"args,omitempty"`

	// NoRollbackOnFailure leaves the partial instance in place when the
	// install script fails, for debugging. The operation still fails.
	NoRollbackOnFailure bool `json:"no_rollback_on_failure,omitempty"`
}

// UpgradeRequest represents a request to upgrade one, several, or all
// installed instances.
type UpgradeRequest struct {
	// Instances names the instances to upgrade. Empty means every installed
	// instance.
	Instances []string `json:"instances,omitempty"`

	// Ref overrides the upgrade source for every named instance. When empty
	// each instance re-fetches from its recorded provenance.
	Ref string `json:"ref,omitempty"`

	// Args supplies upgrade-action argument values declaratively.
	Args map[string]string `json:"args,omitempty"`

	// Force upgrades even when the fetched version equals the installed one.
	Force bool `json:"force,omitempty"`
}

// UpgradeOutcome classifies one instance's result inside an upgrade batch.
type UpgradeOutcome string

const (
	// UpgradeDone means the instance upgraded successfully.
	UpgradeDone UpgradeOutcome = "upgraded"
	// UpgradeSkipped means the instance was left alone (already up to date,
	// or its provenance requires a URL the caller did not supply).
	UpgradeSkipped UpgradeOutcome = "skipped"
	// UpgradeFailed means the upgrade of this instance errored. The batch
	// continues; upgrade is non-atomic by design.
	UpgradeFailed UpgradeOutcome = "failed"
)

// UpgradeReport is one instance's entry in an upgrade batch result.
type UpgradeReport struct {
	Instance string         `json:"instance"`
	Outcome  UpgradeOutcome `json:"outcome"`
	Reason   string         `json:"reason,omitempty"`
}

// UpgradeBatchResult aggregates an upgrade run. The batch fails overall only
// when zero instances upgraded.
type UpgradeBatchResult struct {
	Reports []UpgradeReport `json:"reports"`
}

// Upgraded counts the instances that actually upgraded.
func (r *UpgradeBatchResult) Upgraded() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.Outcome == UpgradeDone {
			n++
		}
	}
	return n
}

// RemoveRequest represents a request to remove an installed instance.
type RemoveRequest struct {
	// Instance is the instance name to remove (required).
	Instance string `json:"instance"`

	// Purge also drops app data directories where the remove script honors
	// the corresponding environment toggle.
	Purge bool `json:"purge,omitempty"`
}

// ChangeURLRequest represents a request to move an installed instance to a
// new domain and/or path.
type ChangeURLRequest struct {
	// Instance is the instance name to move (required).
	Instance string `json:"instance"`

	// Domain is the new domain (required).
	Domain string `json:"domain"`

	// Path is the new URL path (required).
	Path string `json:"path"`
}

// ActionRequest represents a request to run one of an instance's declared
// maintenance actions.
type ActionRequest struct {
	// Instance is the instance name (required).
	Instance string `json:"instance"`

	// Action is the declared action id (required).
	Action string `json:"action"`

	// Args supplies action argument values declaratively.
	Args map[string]string `json:"args,omitempty"`
}

// ConfigApplyRequest represents a request to apply config-panel values to
// an installed instance.
type ConfigApplyRequest struct {
	// Instance is the instance name (required).
	Instance string `json:"instance"`

	// Values maps option names declared in config_panel.json to the values
	// to apply.
	Values map[string]string `json:"values,omitempty"`
}
