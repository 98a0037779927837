package store

import "errors"

var (
	// ErrSessionNotFound indicates no session has the requested id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidMinutes indicates the session duration rounds to zero minutes
	// or is not a finite number.
	ErrInvalidMinutes = errors.New("session must be at least one minute")
)
