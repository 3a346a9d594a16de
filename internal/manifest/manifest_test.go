package manifest

import (
	"testing"

	"steward/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `{
  "id": "wordpress",
  "name": "WordPress",
  "description": "A blog engine",
  "version": "6.4.2-1",
  "multi_instance": true,
  "requirements": {
    "php": ">= 8.1.0"
  },
  "arguments": {
    "install": [
      {"name": "domain", "type": "domain", "ask": "Choose a domain"},
      {"name": "path", "type": "path", "default": "/blog"},
      {"name": "admin", "type": "user", "ask": "Administrator"},
      {"name": "is_public", "type": "boolean", "default": true}
    ]
  }
}`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "wordpress", m.ID)
	assert.Equal(t, "WordPress", m.Name)
	assert.True(t, m.MultiInstance)
	assert.Equal(t, ">= 8.1.0", m.Requirements["php"])

	install := m.ArgumentsFor("install")
	require.Len(t, install, 4)

	// Declaration order drives positional arguments, so it must survive decoding.
	assert.Equal(t, "domain", install[0].Name)
	assert.Equal(t, "path", install[1].Name)
	assert.Equal(t, "admin", install[2].Name)
	assert.Equal(t, "is_public", install[3].Name)

	assert.Equal(t, api.ArgumentDomain, install[0].Kind)
	assert.Equal(t, "/blog", install[1].Default)
	assert.Equal(t, true, install[3].Default)
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, api.IsManifestInvalid(err))
}

func TestParseRejectsMissingID(t *testing.T) {
	_, err := Parse([]byte(`{"name": "No ID"}`))
	require.Error(t, err)
	assert.True(t, api.IsManifestInvalid(err))
}

func TestParseRejectsInstanceSeparatorInID(t *testing.T) {
	_, err := Parse([]byte(`{"id": "word__press", "name": "WordPress"}`))
	require.Error(t, err)
	assert.True(t, api.IsManifestInvalid(err))
}

func TestParseRejectsUppercaseID(t *testing.T) {
	_, err := Parse([]byte(`{"id": "WordPress", "name": "WordPress"}`))
	require.Error(t, err)
	assert.True(t, api.IsManifestInvalid(err))
}

func TestParseRejectsUnknownArgumentType(t *testing.T) {
	raw := `{
	  "id": "app",
	  "name": "App",
	  "arguments": {
	    "install": [{"name": "x", "type": "integer"}]
	  }
	}`
	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.True(t, api.IsManifestInvalid(err))
}

func TestParseRejectsDuplicateArgumentNames(t *testing.T) {
	raw := `{
	  "id": "app",
	  "name": "App",
	  "arguments": {
	    "install": [
	      {"name": "domain", "type": "domain"},
	      {"name": "domain", "type": "string"}
	    ]
	  }
	}`
	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.True(t, api.IsManifestInvalid(err))
	assert.Contains(t, err.Error(), "duplicate argument")
}

func TestParseCollectsAllProblems(t *testing.T) {
	raw := `{
	  "id": "app",
	  "name": "App",
	  "arguments": {
	    "install": [
	      {"name": "a", "type": "string"},
	      {"name": "a", "type": "string"},
	      {"name": "b", "type": "string"},
	      {"name": "b", "type": "string"}
	    ]
	  }
	}`
	_, err := Parse([]byte(raw))
	require.Error(t, err)

	var merr *api.ManifestError
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Problems, 2)
}

func TestRequirementsForMergesMinVersion(t *testing.T) {
	m := &api.Manifest{ID: "app", MinVersion: "1.2"}
	reqs := RequirementsFor(m)
	assert.Equal(t, ">= 1.2", reqs[PlatformDependency])
}

func TestRequirementsForKeepsExplicitPlatformRequirement(t *testing.T) {
	m := &api.Manifest{
		ID:           "app",
		MinVersion:   "1.2",
		Requirements: map[string]string{PlatformDependency: ">= 2.0.0"},
	}
	reqs := RequirementsFor(m)
	assert.Equal(t, ">= 2.0.0", reqs[PlatformDependency])
}

func TestRequirementsForMultiInstanceOverridesPlatformKey(t *testing.T) {
	m := &api.Manifest{
		ID:            "app",
		MultiInstance: true,
		Requirements:  map[string]string{PlatformDependency: ">= 2.0.0", "php": ">= 8.0.0"},
	}
	reqs := RequirementsFor(m)

	// The multi-instance guard wins over any declared platform requirement.
	assert.Equal(t, multiInstanceMinimum, reqs[PlatformDependency])
	assert.Equal(t, ">= 8.0.0", reqs["php"])

	// The manifest's own map is left untouched.
	assert.Equal(t, ">= 2.0.0", m.Requirements[PlatformDependency])
}

func TestCheckRequirementsSatisfied(t *testing.T) {
	m := &api.Manifest{
		ID:           "app",
		Requirements: map[string]string{"php": ">= 8.1.0", PlatformDependency: ">= 1.0.0"},
	}
	err := CheckRequirements(m, map[string]string{
		"php":              "8.2.7",
		PlatformDependency: "1.4.2",
	})
	assert.NoError(t, err)
}

func TestCheckRequirementsMissingDependency(t *testing.T) {
	m := &api.Manifest{ID: "app", Requirements: map[string]string{"mariadb": ">= 10.6"}}
	err := CheckRequirements(m, map[string]string{PlatformDependency: "1.4.2"})
	require.Error(t, err)
	assert.True(t, api.IsRequirementsUnmet(err))
	assert.Contains(t, err.Error(), "not installed")
}

func TestCheckRequirementsUnsatisfiedVersion(t *testing.T) {
	m := &api.Manifest{ID: "app", Requirements: map[string]string{"php": ">= 8.1.0"}}
	err := CheckRequirements(m, map[string]string{"php": "7.4.33"})
	require.Error(t, err)

	var rerr *api.RequirementsError
	require.ErrorAs(t, err, &rerr)
	require.Len(t, rerr.Violations, 1)
	assert.Equal(t, "php", rerr.Violations[0].Dependency)
	assert.Equal(t, "7.4.33", rerr.Violations[0].Installed)
}

func TestCheckRequirementsCollectsAllViolations(t *testing.T) {
	m := &api.Manifest{
		ID: "app",
		Requirements: map[string]string{
			"php":     ">= 8.1.0",
			"mariadb": ">= 10.6",
			"redis":   "not-a-specifier (",
		},
	}
	err := CheckRequirements(m, map[string]string{"php": "7.4.33"})
	require.Error(t, err)

	var rerr *api.RequirementsError
	require.ErrorAs(t, err, &rerr)
	assert.Len(t, rerr.Violations, 3)
}

func TestNormalizeSpecifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.4", ">= 2.4"},
		{">= 2.4", ">= 2.4"},
		{"^1.2.3", "^1.2.3"},
		{"~1.2", "~1.2"},
		{" 3.0 ", ">= 3.0"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSpecifier(tt.in), "normalizeSpecifier(%q)", tt.in)
	}
}
