package gitx

import (
	"errors"
	"fmt"
)

// ErrFetch is matched by every error returned from a failed fetch.
var ErrFetch = errors.New("fetch failed")

// FetchError describes a failed git operation for one repository.
type FetchError struct {
	Locator string
	Ref     string

	// Op is the step that failed: validate, cache, clone, checkout or pull
	Op string

	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s@%s: %s: %v", e.Locator, e.Ref, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ErrEntryNotFound is returned when a named cache entry does not exist.
var ErrEntryNotFound = errors.New("cache entry not found")
