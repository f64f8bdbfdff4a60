package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	// ErrUnsupportedEventType rejects behavior events outside the closed event type set.
	ErrUnsupportedEventType = errors.New("unsupported event type")
	// ErrInvalidTransition is returned when a review or appeal is asked to leave a terminal state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrLockNotAcquired signals another worker holds the chapter rotation lock.
	ErrLockNotAcquired       = errors.New("lock not acquired")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
