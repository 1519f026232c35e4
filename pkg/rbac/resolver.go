package rbac

import (
	"context"
	"fmt"

	"github.com/brokerhq/authzkit/pkg/permissions"
)

// RoleStore is the persistence surface the resolver needs: the principal's
// direct role assignments and each role's owned permission list.
type RoleStore interface {
	// ListPrincipalRoles returns the names of the roles directly assigned
	// to the principal.
	ListPrincipalRoles(ctx context.Context, principalID string) ([]string, error)

	// ListRolePermissions returns the permission strings owned directly by
	// the role.
	ListRolePermissions(ctx context.Context, roleName string) ([]string, error)
}

// Resolver computes effective roles and permissions for a principal by
// expanding role inheritance through the catalog and unioning each expanded
// role's owned permissions.
//
// The resolver is the slow path; hot-path callers should go through the
// authorization cache and fall back here on a miss.
type Resolver struct {
	store   RoleStore
	catalog *Catalog
}

// NewResolver constructs a Resolver over the given store and catalog.
func NewResolver(store RoleStore, catalog *Catalog) *Resolver {
	return &Resolver{store: store, catalog: catalog}
}

// EffectiveRoles returns the principal's direct roles expanded over the
// inheritance graph, ordered by descending hierarchy level.
func (r *Resolver) EffectiveRoles(ctx context.Context, principalID string) ([]string, error) {
	direct, err := r.store.ListPrincipalRoles(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles for %s: %w", principalID, err)
	}
	return r.catalog.ExpandRoles(direct), nil
}

// EffectivePermissions returns the union of the owned permission lists of
// every role the principal holds directly or via inheritance. Removing one
// role never drops a permission still granted by another held or inherited
// role.
func (r *Resolver) EffectivePermissions(ctx context.Context, principalID string) ([]string, error) {
	expanded, err := r.EffectiveRoles(ctx, principalID)
	if err != nil {
		return nil, err
	}

	var union []string
	for _, roleName := range expanded {
		perms, err := r.store.ListRolePermissions(ctx, roleName)
		if err != nil {
			return nil, fmt.Errorf("rbac: list permissions for role %s: %w", roleName, err)
		}
		union = append(union, perms...)
	}
	return permissions.Normalize(union), nil
}

// HasPermission reports whether the principal's effective permission set
// grants the requested permission, directly or via a wildcard. The error is
// reserved for infrastructure failures; "no access" is a plain false.
func (r *Resolver) HasPermission(ctx context.Context, principalID, permission string) (bool, error) {
	held, err := r.EffectivePermissions(ctx, principalID)
	if err != nil {
		return false, err
	}
	return permissions.Has(held, permission), nil
}
