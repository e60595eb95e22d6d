package claim

import "errors"

var (
	// ErrInvalidTransition is returned when the target status is not reachable from the current one
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidStatus is returned when a status is not a known claim status
	ErrInvalidStatus = errors.New("invalid claim status")

	// ErrNotesRequired is returned when a transition demands notes and none were given
	ErrNotesRequired = errors.New("notes required for this transition")
)
