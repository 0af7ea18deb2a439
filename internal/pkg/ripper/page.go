package ripper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Album pages bigger than that are truncated
const maxPageSize = 32 << 20

type page struct {
	body   []byte
	header http.Header
}

// base is embedded by every ripper: it carries the shared options and
// caches the pages it already downloaded, so that the first page is only
// requested once for the title and the rip.
type base struct {
	sync.Mutex
	host  string
	opts  Options
	log   *logrus.Entry
	pages map[string]*page
}

func newBase(u *url.URL, opts Options) *base {
	return &base{
		host:  hostName(u),
		opts:  opts,
		log:   opts.Logger.WithField("host", hostName(u)),
		pages: make(map[string]*page),
	}
}

func (b *base) Host() string {
	return b.host
}

func (b *base) SanitizeURL(u *url.URL) (*url.URL, error) {
	return sanitize(u)
}

func (b *base) AllowDuplicates() bool {
	return false
}

func (b *base) getPage(ctx context.Context, u *url.URL) (*page, error) {
	key := utils.CanonicalURL(u)

	b.Lock()
	cached, found := b.pages[key]
	b.Unlock()

	if found {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPage, err)
	}

	req.Header.Set("User-Agent", b.opts.UserAgent)

	resp, err := b.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s", ErrPage, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPage, err)
	}

	b.log.WithFields(logrus.Fields{
		"url":  key,
		"size": humanize.Bytes(uint64(len(body))),
	}).Debug("Retrieved album page")

	p := &page{body: body, header: resp.Header}

	b.Lock()
	b.pages[key] = p
	b.Unlock()

	return p, nil
}

func (b *base) getDocument(ctx context.Context, u *url.URL) (*goquery.Document, *page, error) {
	p, err := b.getPage(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.body))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrPage, err)
	}

	return doc, p, nil
}

// submitAll hands items to sink in order, index is the position of the
// next item in the album. It returns false once the sink is stopped.
func (b *base) submitAll(sink Sink, items []*url.URL, referrer *url.URL, index *int) bool {
	for _, item := range items {
		if sink.IsStopped() {
			return false
		}

		*index++

		task := &fetch.Task{URL: item, Referrer: referrer.String()}

		if b.opts.SaveOrder {
			sink.SubmitWithPrefix(task, fmt.Sprintf("%03d_", *index), "")
			continue
		}

		sink.Submit(task)
	}

	return !sink.IsStopped()
}

// resolveAll resolves raw against baseURL and keeps the unique http(s) results
func resolveAll(baseURL *url.URL, raw []string) []*url.URL {
	var items []*url.URL

	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || strings.HasPrefix(r, "data:") {
			continue
		}

		ref, err := url.Parse(r)
		if err != nil {
			continue
		}

		resolved := baseURL.ResolveReference(ref)
		resolved.Fragment = ""

		if isWeb(resolved) {
			items = append(items, resolved)
		}
	}

	return dedupeURLs(items)
}

var mediaExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".bmp": true, ".tif": true, ".tiff": true, ".avif": true,
	".mp4": true, ".webm": true, ".mov": true, ".mkv": true, ".m4v": true,
}

func isMedia(u *url.URL) bool {
	return mediaExtensions[strings.ToLower(path.Ext(u.Path))]
}
