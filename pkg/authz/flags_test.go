package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerhq/authzkit/pkg/authz"
	"github.com/brokerhq/authzkit/pkg/feature"
)

func TestService_ResolveFeatureFlag_Precedence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "u1", "senior_agent")

	// Unknown flag resolves to the caller default without error.
	got, err := f.svc.ResolveFeatureFlag(ctx, "x", "u1", "t1", true)
	require.NoError(t, err)
	assert.True(t, got)

	// role/tenant/global all say false...
	require.NoError(t, f.store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeGlobal, Enabled: false}))
	require.NoError(t, f.store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeTenant, TenantID: "t1", Enabled: false}))
	res, err := f.svc.SetFeatureFlagOverride(ctx, authz.SetFlagOverrideParams{
		FlagName: "x", Scope: feature.OverrideRole, ScopeID: "senior_agent",
		Enabled: false, ActorID: "admin-1", TenantID: "t1",
	})
	require.NoError(t, err)
	require.NoError(t, res.AuditErr)

	// ...but a user override true wins.
	res, err = f.svc.SetFeatureFlagOverride(ctx, authz.SetFlagOverrideParams{
		FlagName: "x", Scope: feature.OverrideUser, ScopeID: "u1",
		Enabled: true, ActorID: "admin-1", TenantID: "t1",
	})
	require.NoError(t, err)
	require.NoError(t, res.AuditErr)

	got, err = f.svc.ResolveFeatureFlag(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got)

	// Deleting the user override falls through to the next scope.
	require.NoError(t, f.store.DeleteFlagOverride(ctx, "x", feature.OverrideUser, "u1"))
	got, err = f.svc.ResolveFeatureFlag(ctx, "x", "u1", "t1", true)
	require.NoError(t, err)
	assert.False(t, got) // role override
}

func TestService_SetFeatureFlagOverride_UnknownFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SetFeatureFlagOverride(ctx, authz.SetFlagOverrideParams{
		FlagName: "ghost", Scope: feature.OverrideUser, ScopeID: "u1",
		Enabled: true, ActorID: "admin-1",
	})
	assert.ErrorIs(t, err, authz.ErrUnknownFlag)
}

func TestService_SetFeatureFlagOverride_TenantScopedFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	// Flag defined only for t1: override is accepted in t1 context, not t2.
	require.NoError(t, f.store.SetFlag(ctx, feature.Flag{
		Name: "x", Scope: feature.ScopeTenant, TenantID: "t1", Enabled: false,
	}))

	_, err := f.svc.SetFeatureFlagOverride(ctx, authz.SetFlagOverrideParams{
		FlagName: "x", Scope: feature.OverrideTenant, ScopeID: "t1",
		Enabled: true, ActorID: "admin-1", TenantID: "t1",
	})
	assert.NoError(t, err)

	// The committed override wins over the tenant flag on resolution.
	got, err := f.svc.ResolveFeatureFlag(ctx, "x", "u1", "t1", false)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = f.svc.SetFeatureFlagOverride(ctx, authz.SetFlagOverrideParams{
		FlagName: "x", Scope: feature.OverrideTenant, ScopeID: "t2",
		Enabled: true, ActorID: "admin-1", TenantID: "t2",
	})
	assert.ErrorIs(t, err, authz.ErrUnknownFlag)
}

func TestService_FlagOverrideIsAudited(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.SetFlag(ctx, feature.Flag{Name: "x", Scope: feature.ScopeGlobal, Enabled: false}))

	res, err := f.svc.SetFeatureFlagOverride(ctx, authz.SetFlagOverrideParams{
		FlagName: "x", Scope: feature.OverrideUser, ScopeID: "u1",
		Enabled: true, ActorID: "admin-1", TenantID: "t1",
	})
	require.NoError(t, err)
	require.NoError(t, res.AuditErr)

	entries := f.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, authz.ActionFlagSet, entries[0].Action)
	assert.Equal(t, "x", entries[0].Target)
	assert.Equal(t, "t1", entries[0].TenantID)
	assert.Equal(t, "user", entries[0].Details["scope"])
	assert.Equal(t, true, entries[0].Details["enabled"])
}
