package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"steward/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestListDomainsMergesBaseAndFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "domains.yml", "domains:\n  - extra.example.org\n  - example.org\n")

	d := New(dir, []string{"example.org", "example.com"})
	domains, err := d.ListDomains(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com", "example.org", "extra.example.org"}, domains,
		"duplicates collapse, output is sorted")
}

func TestListDomainsWithoutFile(t *testing.T) {
	d := New(t.TempDir(), []string{"example.org"})

	domains, err := d.ListDomains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"example.org"}, domains)
}

func TestListDomainsSkipsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "domains.yml", "domains:\n  - 'not a domain!'\n  - valid.example.org\n")

	d := New(dir, nil)
	domains, err := d.ListDomains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"valid.example.org"}, domains)
}

func TestListDomainsNormalizesCase(t *testing.T) {
	d := New(t.TempDir(), []string{" Example.ORG "})

	domains, err := d.ListDomains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"example.org"}, domains)
}

func TestResolveUser(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.yml", `users:
  alice:
    fullname: Alice Liddell
    mail: alice@example.org
`)

	d := New(dir, nil)
	user, err := d.ResolveUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Liddell", user.Fullname)
	assert.Equal(t, "alice@example.org", user.Mail)

	_, err = d.ResolveUser(context.Background(), "mallory")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestResolveUserWithoutFile(t *testing.T) {
	d := New(t.TempDir(), nil)

	_, err := d.ResolveUser(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
}

func TestPolicyLength(t *testing.T) {
	p := &Policy{MinLength: 8, MinClasses: 1}

	assert.NoError(t, p.AssertStrongEnough(context.Background(), "longenough"))

	err := p.AssertStrongEnough(context.Background(), "short")
	require.Error(t, err)
	assert.True(t, api.IsWeakPassword(err))
	assert.Contains(t, err.Error(), "8 characters")
}

func TestPolicyCharacterClasses(t *testing.T) {
	p := &Policy{MinLength: 4, MinClasses: 3}

	assert.NoError(t, p.AssertStrongEnough(context.Background(), "Abc123"))

	err := p.AssertStrongEnough(context.Background(), "abcdef")
	require.Error(t, err)
	assert.True(t, api.IsWeakPassword(err))
}

func TestCharacterClasses(t *testing.T) {
	tests := []struct {
		password string
		classes  int
	}{
		{"abc", 1},
		{"abcABC", 2},
		{"abcABC123", 3},
		{"abcABC123!", 4},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.classes, characterClasses(tt.password), "password %q", tt.password)
	}
}
