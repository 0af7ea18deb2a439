package ripper

import "errors"

var (
	// ErrUnsupportedURL is returned when no ripper can handle a URL
	ErrUnsupportedURL = errors.New("no ripper for this URL")
	// ErrMalformedURL is returned when a URL cannot be turned into a valid album URL
	ErrMalformedURL = errors.New("malformed URL")
	// ErrNoTitle is returned by rippers unable to find an album title
	ErrNoTitle = errors.New("no album title")
	// ErrNoGID is returned when the album identifier cannot be extracted
	ErrNoGID = errors.New("no album identifier")
	// ErrPage is returned when an album page cannot be retrieved
	ErrPage = errors.New("unable to get album page")
)
