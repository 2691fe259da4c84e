package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonmsawyer/cmdb/internal/checksum"
	"github.com/jonmsawyer/cmdb/internal/errs"
	"github.com/jonmsawyer/cmdb/internal/model"
)

func TestNewAPIKey(t *testing.T) {
	k1, err := NewAPIKey()
	require.NoError(t, err)
	require.True(t, checksum.Valid(k1))
	require.True(t, lowerHex(k1))

	k2, err := NewAPIKey()
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}

func TestRegistry_Register_New(t *testing.T) {
	repo := newFakeClientRepo()
	reg := NewRegistry(repo)

	c, err := reg.Register(context.Background(), "  Web01.Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "web01.example.com", c.Name)
	require.True(t, checksum.Valid(c.APIKey))
	require.False(t, c.IsDisabled)
	require.Equal(t, []string{"web01.example.com"}, repo.created)
}

func TestRegistry_Register_EmptyName(t *testing.T) {
	reg := NewRegistry(newFakeClientRepo())
	_, err := reg.Register(context.Background(), "   ")
	require.Error(t, err)
}

func TestRegistry_Register_AlreadyEnabled(t *testing.T) {
	repo := newFakeClientRepo()
	reg := NewRegistry(repo)

	_, err := reg.Register(context.Background(), "web01.example.com")
	require.NoError(t, err)

	_, err = reg.Register(context.Background(), "web01.example.com")
	require.ErrorIs(t, err, errs.ErrAlreadyRegistered)
}

func TestRegistry_Register_ReenablesDisabled(t *testing.T) {
	repo := newFakeClientRepo()
	reg := NewRegistry(repo)

	c, err := reg.Register(context.Background(), "web01.example.com")
	require.NoError(t, err)
	key := c.APIKey

	_, err = reg.Disable(context.Background(), key)
	require.NoError(t, err)
	require.True(t, repo.byName["web01.example.com"].IsDisabled)

	again, err := reg.Register(context.Background(), "web01.example.com")
	require.NoError(t, err)
	require.False(t, again.IsDisabled)
	// re-enabling keeps the original key
	require.Equal(t, key, again.APIKey)
	require.Len(t, repo.created, 1)
}

func TestRegistry_Register_Blacklisted(t *testing.T) {
	repo := newFakeClientRepo()
	repo.byName["bad.example.com"] = &model.Client{
		ID: 1, Name: "bad.example.com", IsBlacklisted: true, IsDisabled: true,
	}
	reg := NewRegistry(repo)

	_, err := reg.Register(context.Background(), "bad.example.com")
	require.ErrorIs(t, err, errs.ErrBlacklisted)
}

func TestRegistry_Lookup_RejectsMalformedKey(t *testing.T) {
	reg := NewRegistry(newFakeClientRepo())

	for _, key := range []string{
		"",
		"short",
		"DA39A3EE5E6B4B0D3255BFEF95601890AFD80709",   // uppercase
		"zz39a3ee5e6b4b0d3255bfef95601890afd80709",   // non-hex
		"da39a3ee5e6b4b0d3255bfef95601890afd8070900", // too long
	} {
		_, err := reg.Lookup(context.Background(), key)
		require.ErrorIs(t, err, errs.ErrInvalidAPIKey, "key %q", key)
	}
}

func TestRegistry_Lookup_UnknownKey(t *testing.T) {
	reg := NewRegistry(newFakeClientRepo())
	_, err := reg.Lookup(context.Background(), "da39a3ee5e6b4b0d3255bfef95601890afd80709")
	require.ErrorIs(t, err, errs.ErrUnknownClient)
}

func TestRegistry_Authorize_Gates(t *testing.T) {
	repo := newFakeClientRepo()
	reg := NewRegistry(repo)

	c, err := reg.Register(context.Background(), "web01.example.com")
	require.NoError(t, err)

	got, err := reg.Authorize(context.Background(), c.APIKey)
	require.NoError(t, err)
	require.Equal(t, c.Name, got.Name)

	repo.byName[c.Name].IsDisabled = true
	_, err = reg.Authorize(context.Background(), c.APIKey)
	require.ErrorIs(t, err, errs.ErrClientDisabled)

	repo.byName[c.Name].IsDisabled = false
	repo.byName[c.Name].IsBlacklisted = true
	_, err = reg.Authorize(context.Background(), c.APIKey)
	require.ErrorIs(t, err, errs.ErrBlacklisted)
}

func TestRegistry_Disable_WorksWhileDisabled(t *testing.T) {
	repo := newFakeClientRepo()
	reg := NewRegistry(repo)

	c, err := reg.Register(context.Background(), "web01.example.com")
	require.NoError(t, err)

	_, err = reg.Disable(context.Background(), c.APIKey)
	require.NoError(t, err)

	// unregister is idempotent for an already disabled client
	got, err := reg.Disable(context.Background(), c.APIKey)
	require.NoError(t, err)
	require.True(t, got.IsDisabled)
}
