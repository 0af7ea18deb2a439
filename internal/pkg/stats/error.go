package stats

import "errors"

var (
	// ErrAPIAlreadyStarted is returned when the API server is started twice
	ErrAPIAlreadyStarted = errors.New("API server already started")
	// ErrAPINotStarted is returned when stopping an API server that never started
	ErrAPINotStarted = errors.New("API server not started")
)
