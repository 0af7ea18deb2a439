package album

import "errors"

var (
	// ErrWorkingDir is returned when the album directory cannot be created
	ErrWorkingDir = errors.New("unable to create working directory")
	// ErrTitle is returned when no title, not even the fallback one, can be derived for an album
	ErrTitle = errors.New("unable to derive album title")
	// ErrStopped is returned by the worker pool once the album was stopped
	ErrStopped = errors.New("album stopped")
)
