package errors

import "errors"

var (
	// ErrLockHeld means another request currently holds the advisory lock
	// for the same room or user-day.
	ErrLockHeld = errors.New("booking lock already held")
)
