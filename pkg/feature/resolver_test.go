package feature_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerhq/authzkit/pkg/feature"
)

// staticExpander returns a fixed role list, highest hierarchy level first.
type staticExpander struct {
	roles map[string][]string
	err   error
}

func (e *staticExpander) EffectiveRoles(ctx context.Context, principalID string) ([]string, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.roles[principalID], nil
}

func newResolver(t *testing.T) (*feature.Resolver, *feature.MemoryStore) {
	t.Helper()
	store := feature.NewMemoryStore()
	expander := &staticExpander{roles: map[string][]string{
		"u1": {"regional_manager", "senior_agent", "junior_agent"},
	}}
	return feature.NewResolver(store, expander), store
}

func TestResolver_PrecedenceChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, store := newResolver(t)

	// Nothing defined: caller default wins.
	got, err := resolver.Resolve(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = resolver.Resolve(ctx, "x", "u1", "t1", true)
	require.NoError(t, err)
	assert.True(t, got)

	// Global flag beats the default.
	require.NoError(t, store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeGlobal, Enabled: false}))
	got, err = resolver.Resolve(ctx, "x", "u1", "t1", true)
	require.NoError(t, err)
	assert.False(t, got)

	// Tenant flag beats global.
	require.NoError(t, store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeTenant, TenantID: "t1", Enabled: true}))
	got, err = resolver.Resolve(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got)

	// Tenant override beats the tenant flag.
	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideTenant, ScopeID: "t1", Enabled: false,
	}))
	got, err = resolver.Resolve(ctx, "x", "u1", "t1", true)
	require.NoError(t, err)
	assert.False(t, got)

	// Role override beats the tenant override.
	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideRole, ScopeID: "junior_agent", Enabled: true,
	}))
	got, err = resolver.Resolve(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got)

	// User override beats everything.
	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideUser, ScopeID: "u1", Enabled: false,
	}))
	got, err = resolver.Resolve(ctx, "x", "u1", "t1", true)
	require.NoError(t, err)
	assert.False(t, got)

	// Deleting the user override resolves per the next applicable scope.
	require.NoError(t, store.DeleteOverride(ctx, "x", feature.OverrideUser, "u1"))
	got, err = resolver.Resolve(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got) // role override again
}

func TestResolver_TenantOverrideScopedToTenant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, store := newResolver(t)

	require.NoError(t, store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeGlobal, Enabled: false}))
	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideTenant, ScopeID: "t1", Enabled: true,
	}))

	got, err := resolver.Resolve(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got)

	// Another tenant falls through to the global flag.
	got, err = resolver.Resolve(ctx, "x", "u1", "t2", true)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestResolver_RoleOverrideHierarchyOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, store := newResolver(t)

	// Overrides on two held roles: the higher hierarchy level wins.
	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideRole, ScopeID: "junior_agent", Enabled: false,
	}))
	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideRole, ScopeID: "regional_manager", Enabled: true,
	}))

	got, err := resolver.Resolve(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestResolver_TenantScoping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, store := newResolver(t)

	require.NoError(t, store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeTenant, TenantID: "t1", Enabled: true}))

	// Another tenant does not see t1's flag.
	got, err := resolver.Resolve(ctx, "x", "u1", "t2", false)
	require.NoError(t, err)
	assert.False(t, got)

	// No tenant in scope skips tenant resolution entirely.
	got, err = resolver.Resolve(ctx, "x", "u1", "", false)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestResolver_EmptyPrincipalSkipsOverrides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver, store := newResolver(t)

	require.NoError(t, store.UpsertOverride(ctx, feature.Override{
		FlagName: "x", Scope: feature.OverrideUser, ScopeID: "u1", Enabled: true,
	}))

	got, err := resolver.Resolve(ctx, "x", "", "t1", false)
	require.NoError(t, err)
	assert.False(t, got)
}

// erroringStore fails every read to model persistence being unreachable.
type erroringStore struct{ err error }

func (s *erroringStore) GetFlag(ctx context.Context, name string, scope feature.FlagScope, scopeID string) (feature.Flag, error) {
	return feature.Flag{}, s.err
}

func (s *erroringStore) GetOverride(ctx context.Context, name string, scope feature.OverrideScope, scopeID string) (feature.Override, error) {
	return feature.Override{}, s.err
}

func TestResolver_StoreFailurePropagates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storeErr := errors.New("connection refused")
	resolver := feature.NewResolver(&erroringStore{err: storeErr}, &staticExpander{})

	got, err := resolver.Resolve(ctx, "x", "u1", "t1", false)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, got)
}

func TestResolver_ExpanderFailurePropagates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	expandErr := errors.New("store down")
	resolver := feature.NewResolver(feature.NewMemoryStore(), &staticExpander{err: expandErr})

	_, err := resolver.Resolve(ctx, "x", "u1", "t1", false)
	assert.ErrorIs(t, err, expandErr)
}
