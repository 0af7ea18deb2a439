package ripper

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/clbanning/mxj/v2"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
)

var feedTitlePaths = []string{
	"rss.channel.title",
	"feed.title",
	"RDF.channel.title",
}

// FeedRipper rips the enclosures and media attachments of a RSS or Atom feed
type FeedRipper struct {
	*base
}

func (r *FeedRipper) CanRip(u *url.URL) bool {
	if !isWeb(u) {
		return false
	}

	p := strings.ToLower(strings.TrimSuffix(u.Path, "/"))

	switch path.Ext(p) {
	case ".rss", ".atom", ".xml":
		return true
	}

	return strings.HasSuffix(p, "/feed") || strings.HasSuffix(p, "/rss") || strings.HasSuffix(p, "/atom")
}

// GID is the path of the feed, e.g. blog_feed for /blog/feed.xml
func (r *FeedRipper) GID(u *url.URL) (string, error) {
	trimmed := utils.TrimExtension(strings.Trim(u.Path, "/"))
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGID, u.String())
	}

	return strings.ReplaceAll(trimmed, "/", "_"), nil
}

func (r *FeedRipper) AlbumTitle(ctx context.Context, u *url.URL) (string, error) {
	m, err := r.feed(ctx, u)
	if err != nil {
		return "", err
	}

	for _, p := range feedTitlePaths {
		value, err := m.ValueForPath(p)
		if err != nil {
			continue
		}

		if title := strings.TrimSpace(text(value)); title != "" {
			return title, nil
		}
	}

	return "", ErrNoTitle
}

func (r *FeedRipper) Rip(ctx context.Context, u *url.URL, sink Sink) error {
	m, err := r.feed(ctx, u)
	if err != nil {
		return err
	}

	var raw []string

	// RSS enclosures and Media RSS content/thumbnails
	values, _ := m.ValuesForKey("-url")
	for _, value := range flatten(values) {
		raw = append(raw, text(value))
	}

	// Atom enclosures
	links, _ := m.ValuesForKey("link")
	for _, link := range flatten(links) {
		attrs, ok := link.(map[string]interface{})
		if !ok || text(attrs["-rel"]) != "enclosure" {
			continue
		}
		raw = append(raw, text(attrs["-href"]))
	}

	items := resolveAll(u, raw)

	r.log.WithField("items", len(items)).Info("Ripping feed")

	var index int
	if !r.submitAll(sink, items, u, &index) {
		return ctx.Err()
	}

	return nil
}

func (r *FeedRipper) feed(ctx context.Context, u *url.URL) (mxj.Map, error) {
	p, err := r.getPage(ctx, u)
	if err != nil {
		return nil, err
	}

	m, err := mxj.NewMapXml(p.body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPage, err)
	}

	return m, nil
}

// flatten expands the lists mxj builds for repeated elements
func flatten(values []interface{}) []interface{} {
	var flat []interface{}

	for _, value := range values {
		if list, ok := value.([]interface{}); ok {
			flat = append(flat, flatten(list)...)
			continue
		}
		flat = append(flat, value)
	}

	return flat
}

// text returns the character data of an element decoded by mxj, which is
// either a plain string or a map holding it under #text
func text(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		if t, ok := v["#text"].(string); ok {
			return t
		}
	}

	return ""
}
