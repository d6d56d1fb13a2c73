package engine

import "errors"

var (
	// ErrValidation indicates a request or overlay failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrDestinationExists indicates the install or archive target is taken.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrFilesystem indicates a link, mkdir, walk or move failed.
	ErrFilesystem = errors.New("filesystem error")
)
