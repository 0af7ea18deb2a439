package ripper

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"mvdan.cc/xurls/v2"
)

var linkRegexStrict = xurls.Strict()

// TextListRipper rips every URL found in a plain text document, such as a
// .txt file or a raw paste
type TextListRipper struct {
	*base
}

func (r *TextListRipper) CanRip(u *url.URL) bool {
	if !isWeb(u) {
		return false
	}

	return strings.ToLower(path.Ext(u.Path)) == ".txt" || strings.Contains(u.Path, "/raw/")
}

func (r *TextListRipper) GID(u *url.URL) (string, error) {
	gid := utils.TrimExtension(lastSegment(u))
	if gid == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGID, u.String())
	}

	return gid, nil
}

// AlbumTitle always fails, text lists have no title
func (r *TextListRipper) AlbumTitle(ctx context.Context, u *url.URL) (string, error) {
	return "", ErrNoTitle
}

func (r *TextListRipper) Rip(ctx context.Context, u *url.URL, sink Sink) error {
	p, err := r.getPage(ctx, u)
	if err != nil {
		return err
	}

	items := resolveAll(u, linkRegexStrict.FindAllString(string(p.body), -1))

	r.log.WithField("items", len(items)).Info("Ripping text list")

	var index int
	if !r.submitAll(sink, items, u, &index) {
		return ctx.Err()
	}

	return nil
}
