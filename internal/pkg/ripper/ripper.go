// Package ripper holds the site-specific side of a rip: recognizing an
// album URL, naming the album and walking its pages to submit every item
// to a Sink.
package ripper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Sink receives the items found by a ripper, it is implemented by
// *album.Album
type Sink interface {
	Submit(task *fetch.Task) bool
	SubmitWithPrefix(task *fetch.Task, prefix, subdirectory string) bool
	IsStopped() bool
}

// Ripper is implemented by every supported kind of album
type Ripper interface {
	// Host is the short name of the site, used in fallback titles
	Host() string
	CanRip(u *url.URL) bool
	SanitizeURL(u *url.URL) (*url.URL, error)
	GID(u *url.URL) (string, error)
	AlbumTitle(ctx context.Context, u *url.URL) (string, error)
	AllowDuplicates() bool
	// Rip submits every item of the album at u to sink and returns once
	// there is nothing more to submit. It returns ctx.Err() when cancelled.
	Rip(ctx context.Context, u *url.URL, sink Sink) error
}

// Options are shared by all rippers
type Options struct {
	Client    *http.Client
	UserAgent string
	// Maximum number of album pages followed, 0 means no limit
	MaxPages int
	// Prefix file names with their position in the album
	SaveOrder bool
	Logger    *logrus.Entry
}

// For returns the first ripper able to handle u. The HTML gallery ripper
// is tried last as it accepts any web page.
func For(u *url.URL, opts Options) (Ripper, error) {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	if opts.UserAgent == "" {
		opts.UserAgent = utils.UserAgent()
	}

	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	b := newBase(u, opts)

	rippers := []Ripper{
		&FeedRipper{base: b},
		&TextListRipper{base: b},
		&HTMLGalleryRipper{base: b},
	}

	for _, r := range rippers {
		if r.CanRip(u) {
			b.log = b.log.WithField("ripper", fmt.Sprintf("%T", r))
			return r, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, u.String())
}

// sanitize is the normalization shared by all rippers: only valid http(s)
// URLs are accepted and the fragment is dropped
func sanitize(u *url.URL) (*url.URL, error) {
	if err := utils.ValidateURL(u); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedURL, err)
	}

	c := *u
	c.Fragment = ""
	c.RawFragment = ""

	return &c, nil
}

// hostName strips the usual www. prefix
func hostName(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// lastSegment returns the last non-empty element of the URL path
func lastSegment(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segments[len(segments)-1]
}

func isWeb(u *url.URL) bool {
	return u != nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
