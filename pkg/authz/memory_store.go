package authz

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/brokerhq/authzkit/pkg/feature"
	"github.com/brokerhq/authzkit/pkg/rbac"
)

// MemoryStore is an in-memory Store implementation for tests and
// single-process deployments. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	assignments map[string]map[string]rbac.Assignment // principal -> role -> assignment
	rolePerms   map[string][]string
	bindings    map[string]TenantBinding // principal + "\x00" + tenant
	flags       *feature.MemoryStore
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assignments: make(map[string]map[string]rbac.Assignment),
		rolePerms:   make(map[string][]string),
		bindings:    make(map[string]TenantBinding),
		flags:       feature.NewMemoryStore(),
	}
}

// SetRolePermissions seeds the owned permission list of a role.
func (s *MemoryStore) SetRolePermissions(roleName string, perms []string) {
	s.mu.Lock()
	s.rolePerms[roleName] = slices.Clone(perms)
	s.mu.Unlock()
}

// SetTenantBinding seeds or replaces a tenant binding.
func (s *MemoryStore) SetTenantBinding(binding TenantBinding) {
	s.mu.Lock()
	s.bindings[bindingKey(binding.PrincipalID, binding.TenantID)] = binding
	s.mu.Unlock()
}

// SetFlag seeds or replaces a feature-flag definition.
func (s *MemoryStore) SetFlag(ctx context.Context, flag feature.Flag) error {
	return s.flags.SetFlag(ctx, flag)
}

// DeleteFlagOverride removes an override, for exercising fall-through.
func (s *MemoryStore) DeleteFlagOverride(ctx context.Context, name string, scope feature.OverrideScope, scopeID string) error {
	return s.flags.DeleteOverride(ctx, name, scope, scopeID)
}

// ListPrincipalRoles returns the principal's directly assigned role names.
func (s *MemoryStore) ListPrincipalRoles(ctx context.Context, principalID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	held := s.assignments[principalID]
	roles := make([]string, 0, len(held))
	for name := range held {
		roles = append(roles, name)
	}
	slices.Sort(roles)
	return roles, nil
}

// ListRolePermissions returns the role's owned permission list.
func (s *MemoryStore) ListRolePermissions(ctx context.Context, roleName string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rolePerms[roleName]), nil
}

// InsertRoleAssignment persists a new assignment, unique per
// (principal, role).
func (s *MemoryStore) InsertRoleAssignment(ctx context.Context, assignment rbac.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.assignments[assignment.PrincipalID]
	if !ok {
		held = make(map[string]rbac.Assignment)
		s.assignments[assignment.PrincipalID] = held
	}
	if _, exists := held[assignment.RoleName]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyAssigned, assignment.RoleName)
	}
	held[assignment.RoleName] = assignment
	return nil
}

// DeleteRoleAssignment removes an assignment.
func (s *MemoryStore) DeleteRoleAssignment(ctx context.Context, principalID, roleName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.assignments[principalID]
	if _, exists := held[roleName]; !exists {
		return fmt.Errorf("%w: %s", ErrAssignmentNotFound, roleName)
	}
	delete(held, roleName)
	return nil
}

// GetTenantBinding returns the binding for (principal, tenant).
func (s *MemoryStore) GetTenantBinding(ctx context.Context, principalID, tenantID string) (TenantBinding, error) {
	if err := ctx.Err(); err != nil {
		return TenantBinding{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	binding, ok := s.bindings[bindingKey(principalID, tenantID)]
	if !ok {
		return TenantBinding{}, ErrBindingNotFound
	}
	return binding, nil
}

// GetFlag returns the flag definition at the given scope.
func (s *MemoryStore) GetFlag(ctx context.Context, name string, scope feature.FlagScope, scopeID string) (feature.Flag, error) {
	return s.flags.GetFlag(ctx, name, scope, scopeID)
}

// GetOverride returns the override for (name, scope, scopeID).
func (s *MemoryStore) GetOverride(ctx context.Context, name string, scope feature.OverrideScope, scopeID string) (feature.Override, error) {
	return s.flags.GetOverride(ctx, name, scope, scopeID)
}

// UpsertFlagOverride creates or replaces an override.
func (s *MemoryStore) UpsertFlagOverride(ctx context.Context, override feature.Override) error {
	return s.flags.UpsertOverride(ctx, override)
}

func bindingKey(principalID, tenantID string) string {
	return principalID + "\x00" + tenantID
}
