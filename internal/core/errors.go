package core

import "errors"

// Error taxonomy. Callers classify with errors.Is and wrap with %w to keep
// the category while adding detail.
var (
	// ErrValidation covers malformed input.
	ErrValidation = errors.New("validation error")

	// ErrInvalidDayRange is a validation failure for day navigation
	// outside [1, total_days].
	ErrInvalidDayRange = errors.New("day out of range")

	// ErrNotFound means the session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrStateConflict means the operation is illegal for the session's
	// current status.
	ErrStateConflict = errors.New("operation conflicts with session state")

	// ErrUpstream means a collaborator (planner/tutor/summarizer) call
	// failed.
	ErrUpstream = errors.New("upstream collaborator error")

	// ErrPersistence means the durable store rejected or lost an
	// operation.
	ErrPersistence = errors.New("persistence error")
)
