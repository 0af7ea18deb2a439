package fetch

import "errors"

var (
	// ErrCookieFile is returned by New when the cookies file cannot be loaded
	ErrCookieFile = errors.New("unable to load cookie file")
)
