package feature

import (
	"context"
	"errors"
	"fmt"
)

// Resolver computes a flag's effective value for a principal within a
// tenant. It is read-only and safe for concurrent use; given a snapshot of
// store state the result is deterministic.
//
// Precedence, first match wins:
//
//  1. A user-scoped override for the principal.
//  2. A role-scoped override for any of the principal's expanded roles,
//     highest hierarchy level first.
//  3. A tenant-scoped override for the tenant.
//  4. The tenant-scoped flag.
//  5. The global flag.
//  6. The caller-supplied default.
//
// An unknown flag name is not an error: the chain falls through to the
// default. Store infrastructure failures propagate so the caller can
// fail-closed.
type Resolver struct {
	store Store
	roles RoleExpander
}

// NewResolver constructs a Resolver over the given store and role expander.
func NewResolver(store Store, roles RoleExpander) *Resolver {
	return &Resolver{store: store, roles: roles}
}

// Resolve returns the effective value of the named flag for the principal
// in the tenant, or def when nothing in the precedence chain matches.
// PrincipalID and tenantID may be empty, skipping their scopes.
func (r *Resolver) Resolve(ctx context.Context, flagName, principalID, tenantID string, def bool) (bool, error) {
	if principalID != "" {
		if override, err := r.store.GetOverride(ctx, flagName, OverrideUser, principalID); err == nil {
			return override.Enabled, nil
		} else if !errors.Is(err, ErrOverrideNotFound) {
			return def, fmt.Errorf("feature: user override for %s: %w", flagName, err)
		}

		enabled, found, err := r.resolveRoleOverride(ctx, flagName, principalID)
		if err != nil {
			return def, err
		}
		if found {
			return enabled, nil
		}
	}

	if tenantID != "" {
		if override, err := r.store.GetOverride(ctx, flagName, OverrideTenant, tenantID); err == nil {
			return override.Enabled, nil
		} else if !errors.Is(err, ErrOverrideNotFound) {
			return def, fmt.Errorf("feature: tenant override for %s: %w", flagName, err)
		}

		if flag, err := r.store.GetFlag(ctx, flagName, ScopeTenant, tenantID); err == nil {
			return flag.Enabled, nil
		} else if !errors.Is(err, ErrFlagNotFound) {
			return def, fmt.Errorf("feature: tenant flag %s: %w", flagName, err)
		}
	}

	if flag, err := r.store.GetFlag(ctx, flagName, ScopeGlobal, ""); err == nil {
		return flag.Enabled, nil
	} else if !errors.Is(err, ErrFlagNotFound) {
		return def, fmt.Errorf("feature: global flag %s: %w", flagName, err)
	}

	return def, nil
}

// resolveRoleOverride walks the principal's expanded roles, already ordered
// by descending hierarchy level, and returns the first override found.
func (r *Resolver) resolveRoleOverride(ctx context.Context, flagName, principalID string) (enabled, found bool, err error) {
	roles, err := r.roles.EffectiveRoles(ctx, principalID)
	if err != nil {
		return false, false, fmt.Errorf("feature: expand roles for %s: %w", principalID, err)
	}

	for _, roleName := range roles {
		override, err := r.store.GetOverride(ctx, flagName, OverrideRole, roleName)
		if err == nil {
			return override.Enabled, true, nil
		}
		if !errors.Is(err, ErrOverrideNotFound) {
			return false, false, fmt.Errorf("feature: role override for %s: %w", flagName, err)
		}
	}
	return false, false, nil
}
