package rbac

import (
	"context"
	"slices"
	"sync"
)

// MemorySource is a Source backed by an in-memory role map. It is
// thread-safe and copies its input so later caller mutations cannot leak
// into loaded snapshots.
type MemorySource struct {
	mu    sync.RWMutex
	roles map[string]Role
}

// NewMemorySource creates a Source from a static map of roles. Useful for
// deploy-time provisioned catalogs and tests.
func NewMemorySource(roles map[string]Role) *MemorySource {
	return &MemorySource{roles: cloneRoles(roles)}
}

// Load returns a copy of the role map.
func (s *MemorySource) Load(ctx context.Context) (map[string]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRoles(s.roles), nil
}

// Replace swaps the role map; a subsequent Catalog.Reload picks it up.
func (s *MemorySource) Replace(roles map[string]Role) {
	cloned := cloneRoles(roles)
	s.mu.Lock()
	s.roles = cloned
	s.mu.Unlock()
}

func cloneRoles(roles map[string]Role) map[string]Role {
	cloned := make(map[string]Role, len(roles))
	for name, role := range roles {
		role.Permissions = slices.Clone(role.Permissions)
		role.Inherits = slices.Clone(role.Inherits)
		cloned[name] = role
	}
	return cloned
}
