package rbac

import "errors"

// Domain errors for catalog construction and permission resolution.
var (
	// ErrCircularInheritance is returned when the role inheritance graph
	// contains a cycle. Detected at load time; fatal to startup.
	ErrCircularInheritance = errors.New("rbac.circular_inheritance")

	// ErrUndefinedRole is returned when a role inherits from a role that
	// does not exist in the catalog. Detected at load time; fatal to startup.
	ErrUndefinedRole = errors.New("rbac.undefined_role")

	// ErrInvalidRole is returned when a role definition is malformed, such
	// as an empty name. Detected at load time; fatal to startup.
	ErrInvalidRole = errors.New("rbac.invalid_role")
)
