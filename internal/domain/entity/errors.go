package entity

import "errors"

var (
	// ErrValidation marks input that has the wrong shape or values
	ErrValidation = errors.New("validation failed")

	// ErrInvalidOperation marks an action that is structurally disallowed,
	// such as deleting a system-generated settlement item
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConcurrentModification marks a lost race on a trip write
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrNotFound marks a missing trip, item or reference record
	ErrNotFound = errors.New("not found")
)
