package rooms

import "errors"

var (
	// ErrInsufficientCapacity means fewer rooms of the requested type are
	// available than the participant count needs. The caller decides what to
	// do; there is no automatic type downgrade.
	ErrInsufficientCapacity = errors.New("insufficient room capacity")

	// ErrAllocationConflict means a room believed available is already bound
	// to a different session. Under the single-writer design this indicates a
	// configuration error, not a recoverable condition.
	ErrAllocationConflict = errors.New("room already assigned to another session")
)
