package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("storage: duplicate")

// ErrInvalidTransition is returned when a conflict check resolution is
// attempted on a check that is not pending, or with a non-terminal status.
var ErrInvalidTransition = errors.New("storage: invalid status transition")
