package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// Source provides role definitions for the catalog.
type Source interface {
	// Load returns a map of all roles keyed by name.
	Load(ctx context.Context) (map[string]Role, error)
}

// Catalog owns the role definitions and the inheritance graph.
//
// The graph is validated once when the catalog is built (undefined references
// and cycles fail fast) so that expansion never has to defend against them on
// the request path. The loaded snapshot is immutable; Reload swaps in a fresh
// one atomically, so readers are never blocked and never observe a partially
// loaded catalog.
type Catalog struct {
	source   Source
	snapshot atomic.Pointer[map[string]Role]
}

// NewCatalog builds a catalog from the provided source and validates the
// inheritance graph. Returns ErrUndefinedRole or ErrCircularInheritance if
// the configuration is invalid.
func NewCatalog(ctx context.Context, source Source) (*Catalog, error) {
	c := &Catalog{source: source}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload loads a fresh snapshot from the source, validates it and swaps it
// in atomically. On validation failure the previous snapshot stays active.
func (c *Catalog) Reload(ctx context.Context) error {
	roles, err := c.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("rbac: load roles: %w", err)
	}
	if roles == nil {
		roles = make(map[string]Role)
	}

	snapshot := make(map[string]Role, len(roles))
	for name, role := range roles {
		if name == "" {
			return fmt.Errorf("%w: empty role name", ErrInvalidRole)
		}
		role.Name = name
		role.Permissions = slices.Clone(role.Permissions)
		role.Inherits = slices.Clone(role.Inherits)
		snapshot[name] = role
	}

	if err := validateInheritance(snapshot); err != nil {
		return err
	}

	c.snapshot.Store(&snapshot)
	return nil
}

// Role returns the definition for the given role name.
func (c *Catalog) Role(name string) (Role, bool) {
	role, ok := (*c.snapshot.Load())[name]
	return role, ok
}

// Roles returns all defined role names sorted by descending hierarchy level.
func (c *Catalog) Roles() []string {
	snapshot := *c.snapshot.Load()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	c.sortByHierarchyDesc(snapshot, names)
	return names
}

// ExpandRoles returns the closure of the given roles over the inheritance
// graph: the roles themselves plus every role reachable via Inherits,
// deduplicated. Unknown role names are skipped; a stored assignment may
// outlive its role definition and must not poison resolution.
//
// The closure is idempotent: expanding an already expanded set returns the
// same set.
func (c *Catalog) ExpandRoles(direct []string) []string {
	snapshot := *c.snapshot.Load()

	seen := make(map[string]struct{}, len(direct))
	queue := make([]string, 0, len(direct))
	for _, name := range direct {
		if _, ok := snapshot[name]; !ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		queue = append(queue, name)
	}

	// Breadth-first walk; the graph is already known to be acyclic.
	expanded := make([]string, 0, len(queue))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		expanded = append(expanded, name)

		for _, parent := range snapshot[name].Inherits {
			if _, ok := snapshot[parent]; !ok {
				continue
			}
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}

	c.sortByHierarchyDesc(snapshot, expanded)
	return expanded
}

// HierarchyLevel returns the hierarchy level of the given role,
// or false if the role is not defined.
func (c *Catalog) HierarchyLevel(name string) (int, bool) {
	role, ok := (*c.snapshot.Load())[name]
	if !ok {
		return 0, false
	}
	return role.HierarchyLevel, true
}

// MaxHierarchyLevel returns the highest hierarchy level among the given
// roles. Unknown roles are ignored; an empty or fully unknown set yields 0.
func (c *Catalog) MaxHierarchyLevel(roles []string) int {
	snapshot := *c.snapshot.Load()
	maxLevel := 0
	for _, name := range roles {
		if role, ok := snapshot[name]; ok && role.HierarchyLevel > maxLevel {
			maxLevel = role.HierarchyLevel
		}
	}
	return maxLevel
}

// sortByHierarchyDesc orders role names by descending hierarchy level so the
// highest-privilege role comes first. Ties break on name for stable output.
func (c *Catalog) sortByHierarchyDesc(snapshot map[string]Role, names []string) {
	slices.SortFunc(names, func(a, b string) int {
		if d := snapshot[b].HierarchyLevel - snapshot[a].HierarchyLevel; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
}

// validateInheritance rejects undefined inheritance targets, cycles and
// excessive depth before the snapshot becomes visible to readers.
func validateInheritance(roles map[string]Role) error {
	for name, role := range roles {
		for _, parent := range role.Inherits {
			if _, ok := roles[parent]; !ok {
				return errors.Join(ErrUndefinedRole,
					fmt.Errorf("role %q inherits undefined role %q", name, parent))
			}
		}
	}

	state := make(map[string]int, len(roles)) // 0 unvisited, 1 on stack, 2 done
	heights := make(map[string]int, len(roles))
	var visit func(name string) (int, error)
	visit = func(name string) (int, error) {
		switch state[name] {
		case 1:
			return 0, errors.Join(ErrCircularInheritance,
				fmt.Errorf("cycle detected at role %q", name))
		case 2:
			return heights[name], nil
		}
		state[name] = 1
		height := 0
		for _, parent := range roles[name].Inherits {
			h, err := visit(parent)
			if err != nil {
				return 0, err
			}
			if h+1 > height {
				height = h + 1
			}
		}
		state[name] = 2
		heights[name] = height
		return height, nil
	}

	for name := range roles {
		height, err := visit(name)
		if err != nil {
			return err
		}
		if height > MaxInheritanceDepth {
			return errors.Join(ErrCircularInheritance,
				fmt.Errorf("inheritance depth of role %q exceeds %d", name, MaxInheritanceDepth))
		}
	}
	return nil
}
