package authz_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerhq/authzkit/pkg/authz"
)

// brokenBackend simulates a permanently failing cache backend.
type brokenBackend struct{}

func (brokenBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (brokenBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("backend down")
}

func (brokenBackend) Delete(ctx context.Context, key string) error {
	return errors.New("backend down")
}

func (brokenBackend) Close() error { return nil }

// Every decision must produce the same boolean result regardless of cache
// health; only latency may differ.
func TestService_CacheOutageChangesNoDecision(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	healthy := newFixture(t)
	degraded := newFixture(t, withBackend(brokenBackend{}))

	for _, f := range []*fixture{healthy, degraded} {
		f.assign(t, "u1", "senior_agent")
		f.store.SetTenantBinding(authz.TenantBinding{
			PrincipalID: "u1", TenantID: "t1", Status: authz.StatusActive,
		})
	}

	type decision struct {
		name string
		fn   func(f *fixture) (bool, error)
	}

	decisions := []decision{
		{name: "inherited permission", fn: func(f *fixture) (bool, error) {
			return f.svc.HasPermission(ctx, "u1", "policies.create")
		}},
		{name: "denied permission", fn: func(f *fixture) (bool, error) {
			return f.svc.HasPermission(ctx, "u1", "agents.read")
		}},
		{name: "tenant access", fn: func(f *fixture) (bool, error) {
			return f.svc.ValidateTenantAccess(ctx, "u1", "t1")
		}},
		{name: "tenant denied", fn: func(f *fixture) (bool, error) {
			return f.svc.ValidateTenantAccess(ctx, "u1", "t2")
		}},
		{name: "role level", fn: func(f *fixture) (bool, error) {
			return f.svc.HasRoleLevel(ctx, "u1", 20)
		}},
		{name: "flag default", fn: func(f *fixture) (bool, error) {
			return f.svc.ResolveFeatureFlag(ctx, "x", "u1", "t1", true)
		}},
	}

	for _, d := range decisions {
		wantOK, err := d.fn(healthy)
		require.NoError(t, err, d.name)

		gotOK, err := d.fn(degraded)
		require.NoError(t, err, d.name)
		assert.Equal(t, wantOK, gotOK, d.name)
	}
}

// hangingBackend blocks every call until the caller's context expires.
type hangingBackend struct{}

func (hangingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func (hangingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingBackend) Delete(ctx context.Context, key string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingBackend) Close() error { return nil }

// A backend that hangs instead of erroring must still degrade within the
// store timeout: decisions stay answerable and a persisted mutation reports
// success even with a deadline-free caller context.
func TestService_HungCacheBackendDegradesWithinTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, withBackend(hangingBackend{}), withStoreTimeout(50*time.Millisecond))

	start := time.Now()
	f.assign(t, "u1", "junior_agent")

	ok, err := f.svc.HasPermission(ctx, "u1", "policies.read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasPermission(ctx, "u1", "policies.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	// Each backend call is capped at the timeout; the whole sequence must
	// finish well under a hang.
	assert.Less(t, time.Since(start), 5*time.Second)
}

// A degraded cache repeats resolution every call; results stay stable.
func TestService_DegradedCacheIsRepeatable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, withBackend(brokenBackend{}))
	f.assign(t, "u1", "junior_agent")

	for i := 0; i < 3; i++ {
		ok, err := f.svc.HasPermission(ctx, "u1", "policies.read")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestService_FastPathMatchesSlowPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.assign(t, "u1", "regional_manager")

	// First call fills the cache, second is served from it.
	first, err := f.svc.EffectivePermissions(ctx, "u1")
	require.NoError(t, err)
	second, err := f.svc.EffectivePermissions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	perms, ok := f.cache.GetPermissions(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, first, perms)
}
