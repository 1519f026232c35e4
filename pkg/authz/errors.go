package authz

import "errors"

// Typed errors for administrative mutations. Decision functions never return
// these: a negative decision is a plain false, and any non-nil error from a
// decision call signals an infrastructure failure the caller must treat as
// "no access" (fail-closed).
var (
	// ErrUnknownRole is returned when a mutation references a role that is
	// not defined in the catalog.
	ErrUnknownRole = errors.New("authz.unknown_role")

	// ErrUnknownFlag is returned when an override mutation references a
	// flag with no definition at any scope.
	ErrUnknownFlag = errors.New("authz.unknown_flag")

	// ErrAlreadyAssigned is returned when the principal already holds the
	// role being assigned.
	ErrAlreadyAssigned = errors.New("authz.role_already_assigned")

	// ErrAssignmentNotFound is returned when removing a role the principal
	// does not hold.
	ErrAssignmentNotFound = errors.New("authz.role_assignment_not_found")

	// ErrBindingNotFound is returned by stores when no tenant binding
	// exists for the (principal, tenant) pair. The tenant validator maps it
	// to a plain deny.
	ErrBindingNotFound = errors.New("authz.tenant_binding_not_found")
)
