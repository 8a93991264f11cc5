// Package sentinel holds the error values dependencies return so services
// can translate them into domain errors exactly once.
package sentinel

import "errors"

var (
	// ErrNotFound reports that the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists reports an insert colliding with an existing key.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidState reports an operation the current state forbids, such
	// as moving the simulated clock backwards.
	ErrInvalidState = errors.New("invalid state")
)
