package audit

import "errors"

var (
	// ErrInvalidEntry indicates a record missing required fields.
	ErrInvalidEntry = errors.New("audit.invalid_entry")

	// ErrSinkUnavailable indicates the sink backend rejected the write.
	// Non-fatal: the audited mutation has already been committed.
	ErrSinkUnavailable = errors.New("audit.sink_unavailable")
)
