package lifecycle

import (
	"context"
	"net"
	"testing"

	"steward/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURLAvailable(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.manager.CheckURL(context.Background(), "example.org", "/blog"))

	// The check reserves nothing: asking again gives the same answer.
	require.NoError(t, fx.manager.CheckURL(context.Background(), "example.org", "/blog"))

	names, err := fx.repo.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCheckURLConflicts(t *testing.T) {
	fx := newFixture(t)
	fx.source.apps["hello"] = webApp("hello", "1.0", false)
	fx.mustInstall(t, "hello", "example.org", "/blog")

	err := fx.manager.CheckURL(context.Background(), "example.org", "/blog")
	require.Error(t, err)
	assert.True(t, api.IsLocationConflict(err))

	// Slash-boundary overlap conflicts in both directions.
	assert.True(t, api.IsLocationConflict(
		fx.manager.CheckURL(context.Background(), "example.org", "/blog/feed")))
	assert.True(t, api.IsLocationConflict(
		fx.manager.CheckURL(context.Background(), "example.org", "/")))

	// A different domain or a sibling path is free.
	assert.NoError(t, fx.manager.CheckURL(context.Background(), "example.com", "/blog"))
	assert.NoError(t, fx.manager.CheckURL(context.Background(), "example.org", "/blogroll"))
}

func TestCheckURLUnknownDomain(t *testing.T) {
	fx := newFixture(t)

	err := fx.manager.CheckURL(context.Background(), "nope.example", "/blog")
	require.Error(t, err)
	assert.True(t, api.IsArgumentInvalid(err))
}

func TestCheckPort(t *testing.T) {
	fx := newFixture(t)

	assert.True(t, api.IsArgumentInvalid(fx.manager.CheckPort(0)))
	assert.True(t, api.IsArgumentInvalid(fx.manager.CheckPort(70000)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port

	err = fx.manager.CheckPort(port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")

	require.NoError(t, ln.Close())
	assert.NoError(t, fx.manager.CheckPort(port))
}
