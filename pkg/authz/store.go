package authz

import (
	"context"

	"github.com/brokerhq/authzkit/pkg/feature"
	"github.com/brokerhq/authzkit/pkg/rbac"
)

// BindingStatus is the state of a principal-tenant binding.
type BindingStatus string

const (
	StatusActive   BindingStatus = "active"
	StatusInactive BindingStatus = "inactive"
)

// TenantBinding associates a principal with a tenant. Only an active binding
// grants tenant-scoped access; transitions between statuses are owned by the
// administrative layer, not this library.
type TenantBinding struct {
	PrincipalID string
	TenantID    string
	Status      BindingStatus
}

// Active reports whether the binding currently grants access.
func (b TenantBinding) Active() bool {
	return b.Status == StatusActive
}

// Store is the persistence surface the authorization service consumes. Role
// definitions themselves flow through rbac.Source into the catalog; the
// store owns the runtime-mutated state: assignments, tenant bindings and
// feature flags.
//
// Implementations must be safe for concurrent use and must return the
// package's typed errors (ErrAlreadyAssigned, ErrAssignmentNotFound,
// ErrBindingNotFound, feature.ErrFlagNotFound, feature.ErrOverrideNotFound)
// so callers can distinguish "no such entity" from infrastructure failure.
type Store interface {
	rbac.RoleStore
	feature.Store

	// InsertRoleAssignment persists a new (principal, role) binding.
	// Returns ErrAlreadyAssigned if the principal already holds the role.
	InsertRoleAssignment(ctx context.Context, assignment rbac.Assignment) error

	// DeleteRoleAssignment removes a (principal, role) binding. Returns
	// ErrAssignmentNotFound if the principal does not hold the role.
	DeleteRoleAssignment(ctx context.Context, principalID, roleName string) error

	// GetTenantBinding returns the binding for (principal, tenant), or
	// ErrBindingNotFound.
	GetTenantBinding(ctx context.Context, principalID, tenantID string) (TenantBinding, error)

	// UpsertFlagOverride creates or replaces a feature-flag override.
	UpsertFlagOverride(ctx context.Context, override feature.Override) error
}
