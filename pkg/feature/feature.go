package feature

import (
	"context"
	"time"
)

// FlagScope identifies where a flag definition applies.
type FlagScope string

const (
	// ScopeGlobal is a deployment-wide flag (tenant_id unset).
	ScopeGlobal FlagScope = "global"
	// ScopeTenant is a flag value specific to one tenant.
	ScopeTenant FlagScope = "tenant"
)

// OverrideScope identifies the target of a flag override. Narrower scopes
// win: user beats role beats tenant.
type OverrideScope string

const (
	OverrideUser   OverrideScope = "user"
	OverrideRole   OverrideScope = "role"
	OverrideTenant OverrideScope = "tenant"
)

// Flag is a feature flag definition at global or tenant scope.
type Flag struct {
	Name      string
	Scope     FlagScope
	TenantID  string // set only for ScopeTenant
	Enabled   bool
	UpdatedAt time.Time
}

// Override pins a flag's value for a specific user, role or tenant,
// taking precedence over the flag's own value per the resolution chain.
type Override struct {
	FlagName  string
	Scope     OverrideScope
	ScopeID   string // principal ID, role name or tenant ID
	Enabled   bool
	UpdatedAt time.Time
}

// Store is the persistence surface flag resolution reads from.
type Store interface {
	// GetFlag returns the flag definition at the given scope. ScopeID is
	// the tenant ID for ScopeTenant and empty for ScopeGlobal. Returns
	// ErrFlagNotFound when no definition exists at that scope.
	GetFlag(ctx context.Context, name string, scope FlagScope, scopeID string) (Flag, error)

	// GetOverride returns the override for (name, scope, scopeID), or
	// ErrOverrideNotFound when none is set.
	GetOverride(ctx context.Context, name string, scope OverrideScope, scopeID string) (Override, error)
}

// RoleExpander supplies a principal's expanded roles ordered by descending
// hierarchy level, so the highest-privilege role's override wins ties.
type RoleExpander interface {
	EffectiveRoles(ctx context.Context, principalID string) ([]string, error)
}
