package feature

import "errors"

// Domain errors for flag storage and resolution.
var (
	// ErrFlagNotFound indicates no flag definition exists at the requested
	// scope. Resolution treats this as fall-through, never as a failure.
	ErrFlagNotFound = errors.New("feature.flag_not_found")

	// ErrOverrideNotFound indicates no override is set for the requested
	// target. Resolution treats this as fall-through, never as a failure.
	ErrOverrideNotFound = errors.New("feature.override_not_found")

	// ErrInvalidFlag indicates invalid flag parameters on a write.
	ErrInvalidFlag = errors.New("feature.invalid_flag")
)
