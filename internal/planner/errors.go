package planner

import "errors"

var (
	// ErrInvalidPattern indicates a source pattern that cannot be expanded
	// or that reaches outside the source tree.
	ErrInvalidPattern = errors.New("invalid source pattern")

	// ErrInvalidDestination indicates a destination that is absolute or
	// escapes the merge root.
	ErrInvalidDestination = errors.New("invalid destination")
)
