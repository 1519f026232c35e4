// Package rbac provides the role catalog and permission resolution core for
// multi-tenant role-based access control.
//
// Key concepts:
//
//   - Role: a named set of owned permissions with an informational hierarchy
//     level and optional inheritance from other roles
//   - Catalog: an immutable, validated snapshot of all role definitions and
//     the inheritance graph, atomically swappable on reload
//   - Resolver: computes a principal's effective roles and permissions by
//     expanding inheritance and unioning owned permission lists
//
// The inheritance graph is explicit and must be acyclic; the catalog rejects
// cycles and references to undefined roles when it is built, so request-path
// expansion never has to defend against them.
//
// Basic usage:
//
//	source := rbac.NewMemorySource(map[string]rbac.Role{
//	    "junior_agent": {
//	        HierarchyLevel: 10,
//	        Permissions:    []string{"policies.create", "policies.read"},
//	    },
//	    "senior_agent": {
//	        HierarchyLevel: 20,
//	        Permissions:    []string{"policies.approve"},
//	        Inherits:       []string{"junior_agent"},
//	    },
//	})
//
//	catalog, err := rbac.NewCatalog(ctx, source)
//	if err != nil {
//	    // cyclic inheritance or undefined role; fatal to startup
//	}
//
//	resolver := rbac.NewResolver(store, catalog)
//	ok, err := resolver.HasPermission(ctx, principalID, "policies.approve")
package rbac
