package rbac

import "time"

// MaxInheritanceDepth bounds role nesting to keep expansion cheap and to
// reject pathological configurations at load time.
const MaxInheritanceDepth = 10

// Role is a named bundle of permissions with optional inheritance.
//
// Permissions lists the permission strings owned directly by this role; it is
// the authoritative source, never derived. Inherits names the roles whose
// permissions this role additionally grants. The inheritance relation forms a
// directed acyclic graph validated when the catalog is built; it is not
// derived from HierarchyLevel, which is an informational ranking only.
type Role struct {
	Name           string
	HierarchyLevel int
	IsSystem       bool
	Permissions    []string
	Inherits       []string
}

// Assignment binds a role to a principal. Unique per (principal, role).
type Assignment struct {
	PrincipalID string
	RoleName    string
	AssignedBy  string
	AssignedAt  time.Time
}
