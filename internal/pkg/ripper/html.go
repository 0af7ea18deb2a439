package ripper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/tomnomnom/linkheader"
)

// HTMLGalleryRipper rips the images and videos embedded in or linked from
// a web page, following its "next" links.
type HTMLGalleryRipper struct {
	*base
}

func (r *HTMLGalleryRipper) CanRip(u *url.URL) bool {
	return isWeb(u)
}

// GID is the last element of the gallery path
func (r *HTMLGalleryRipper) GID(u *url.URL) (string, error) {
	gid := lastSegment(u)
	if gid == "" {
		return "", fmt.Errorf("%w: %s", ErrNoGID, u.String())
	}

	return gid, nil
}

// AlbumTitle is the og:title of the first page, or its <title>
func (r *HTMLGalleryRipper) AlbumTitle(ctx context.Context, u *url.URL) (string, error) {
	doc, _, err := r.getDocument(ctx, u)
	if err != nil {
		return "", err
	}

	title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	if title = strings.TrimSpace(title); title != "" {
		return title, nil
	}

	if title = strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}

	return "", ErrNoTitle
}

func (r *HTMLGalleryRipper) Rip(ctx context.Context, u *url.URL, sink Sink) error {
	var (
		index   int
		visited = make(map[string]bool)
		current = u
	)

	for pages := 0; current != nil; pages++ {
		if r.opts.MaxPages > 0 && pages >= r.opts.MaxPages {
			r.log.WithField("maxPages", r.opts.MaxPages).Info("Maximum number of pages reached")
			break
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		visited[utils.CanonicalURL(current)] = true

		doc, p, err := r.getDocument(ctx, current)
		if err != nil {
			// Only the first page is mandatory
			if pages == 0 {
				return err
			}

			r.log.WithFields(logrus.Fields{
				"url": current.String(),
				"err": err.Error(),
			}).Warn("Unable to get next page, stopping")
			break
		}

		items := extractMedia(current, doc)

		r.log.WithFields(logrus.Fields{
			"url":   current.String(),
			"page":  pages + 1,
			"items": len(items),
		}).Info("Ripping page")

		if !r.submitAll(sink, items, current, &index) {
			return ctx.Err()
		}

		next := nextPage(current, p, doc)
		if next != nil && visited[utils.CanonicalURL(next)] {
			next = nil
		}
		current = next
	}

	return nil
}

// extractMedia returns the images and videos of a page, lazy loading
// attributes first as they usually point to the full size version
func extractMedia(pageURL *url.URL, doc *goquery.Document) []*url.URL {
	baseURL := pageURL
	if href, exists := doc.Find("base[href]").First().Attr("href"); exists {
		if ref, err := url.Parse(href); err == nil {
			baseURL = pageURL.ResolveReference(ref)
		}
	}

	var raw []string

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-src", "data-original", "src"} {
			if value, exists := s.Attr(attr); exists && strings.TrimSpace(value) != "" {
				raw = append(raw, value)
				return
			}
		}
	})

	doc.Find("video[src], video source[src], audio source[src]").Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr("src")
		raw = append(raw, value)
	})

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr("href")
		links = append(links, value)
	})

	items := resolveAll(baseURL, raw)

	for _, link := range resolveAll(baseURL, links) {
		if isMedia(link) {
			items = append(items, link)
		}
	}

	return dedupeURLs(items)
}

// nextPage looks for a rel="next" link, in the Link header then in the page
func nextPage(pageURL *url.URL, p *page, doc *goquery.Document) *url.URL {
	var candidates []string

	for _, link := range linkheader.Parse(p.header.Get("Link")).FilterByRel("next") {
		candidates = append(candidates, link.URL)
	}

	doc.Find(`link[rel="next"], a[rel="next"]`).Each(func(_ int, s *goquery.Selection) {
		if href, exists := s.Attr("href"); exists {
			candidates = append(candidates, href)
		}
	})

	if resolved := resolveAll(pageURL, candidates); len(resolved) > 0 {
		return resolved[0]
	}

	return nil
}

func dedupeURLs(items []*url.URL) []*url.URL {
	raw := make([]string, 0, len(items))
	for _, item := range items {
		raw = append(raw, utils.CanonicalURL(item))
	}

	deduped := make([]*url.URL, 0, len(items))
	for _, s := range utils.DedupeStrings(raw) {
		if u, err := url.Parse(s); err == nil {
			deduped = append(deduped, u)
		}
	}

	return deduped
}
