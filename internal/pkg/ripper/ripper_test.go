package ripper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	sync.Mutex
	urls      []string
	prefixes  []string
	referrers []string
	stopAfter int
}

func (s *fakeSink) Submit(task *fetch.Task) bool {
	s.Lock()
	defer s.Unlock()

	s.urls = append(s.urls, task.URL.String())
	s.referrers = append(s.referrers, task.Referrer)
	return true
}

func (s *fakeSink) SubmitWithPrefix(task *fetch.Task, prefix, subdirectory string) bool {
	s.Lock()
	defer s.Unlock()

	s.urls = append(s.urls, task.URL.String())
	s.prefixes = append(s.prefixes, prefix)
	s.referrers = append(s.referrers, task.Referrer)
	return true
}

func (s *fakeSink) IsStopped() bool {
	s.Lock()
	defer s.Unlock()

	return s.stopAfter > 0 && len(s.urls) >= s.stopAfter
}

func testOptions() Options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return Options{Logger: logrus.NewEntry(logger)}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()

	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestForPicksRipper(t *testing.T) {
	tests := []struct {
		raw      string
		expected interface{}
	}{
		{"https://example.com/blog/feed.xml", &FeedRipper{}},
		{"https://example.com/blog/feed", &FeedRipper{}},
		{"https://example.com/list.txt", &TextListRipper{}},
		{"https://example.com/raw/abcd", &TextListRipper{}},
		{"https://www.example.com/gallery/42", &HTMLGalleryRipper{}},
	}

	for _, tt := range tests {
		r, err := For(mustParse(t, tt.raw), testOptions())
		require.NoError(t, err, tt.raw)
		assert.IsType(t, tt.expected, r, tt.raw)
		assert.Equal(t, "example.com", r.Host())
		assert.False(t, r.AllowDuplicates())
	}
}

func TestForUnsupported(t *testing.T) {
	_, err := For(mustParse(t, "ftp://example.com/pub/album"), testOptions())
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestSanitizeURL(t *testing.T) {
	r, err := For(mustParse(t, "https://example.com/gallery/42"), testOptions())
	require.NoError(t, err)

	u, err := r.SanitizeURL(mustParse(t, "https://example.com/gallery/42#photo-3"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/gallery/42", u.String())

	_, err = r.SanitizeURL(mustParse(t, "mailto:someone@example.com"))
	assert.ErrorIs(t, err, ErrMalformedURL)
}

func TestGID(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"https://example.com/gallery/42", "42"},
		{"https://example.com/gallery/42/", "42"},
		{"https://example.com/blog/feed.xml", "blog_feed"},
		{"https://example.com/lists/cats.txt", "cats"},
	}

	for _, tt := range tests {
		u := mustParse(t, tt.raw)

		r, err := For(u, testOptions())
		require.NoError(t, err)

		gid, err := r.GID(u)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, gid, tt.raw)
	}

	u := mustParse(t, "https://example.com/")
	r, err := For(u, testOptions())
	require.NoError(t, err)

	_, err = r.GID(u)
	assert.ErrorIs(t, err, ErrNoGID)
}

func TestHTMLGalleryRip(t *testing.T) {
	var server *httptest.Server
	var userAgents []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/gallery/42", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		userAgents = append(userAgents, r.UserAgent())
		mu.Unlock()

		w.Header().Set("Link", `</gallery/42/page/2>; rel="next"`)
		fmt.Fprint(w, `<html><head><title> Holidays </title></head><body>
			<img src="/img/1.jpg">
			<img src="/placeholder.gif" data-src="2.jpg">
			<img src="data:image/png;base64,AAAA">
			<a href="/full/3.png">full size</a>
			<a href="/about">about</a>
			<img src="/img/1.jpg#again">
		</body></html>`)
	})
	mux.HandleFunc("/gallery/42/page/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<video><source src="/v/4.mp4"></video>
			<a rel="next" href="/gallery/42">back</a>
		</body></html>`)
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	u := mustParse(t, server.URL+"/gallery/42")

	opts := testOptions()
	opts.UserAgent = "ripley-test"

	r, err := For(u, opts)
	require.NoError(t, err)

	title, err := r.AlbumTitle(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "Holidays", title)

	sink := &fakeSink{}
	require.NoError(t, r.Rip(context.Background(), u, sink))

	assert.Equal(t, []string{
		server.URL + "/img/1.jpg",
		server.URL + "/gallery/2.jpg",
		server.URL + "/full/3.png",
		server.URL + "/v/4.mp4",
	}, sink.urls)
	assert.Equal(t, u.String(), sink.referrers[0])

	// The first page was only requested once
	assert.Equal(t, []string{"ripley-test"}, userAgents)
}

func TestHTMLGalleryMaxPagesAndOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(r.URL.Path, "/p/%d", &n)
		fmt.Fprintf(w, `<img src="/img/%d.jpg"><link rel="next" href="/p/%d">`, n, n+1)
	}))
	defer server.Close()

	u := mustParse(t, server.URL+"/p/1")

	opts := testOptions()
	opts.MaxPages = 3
	opts.SaveOrder = true

	r, err := For(u, opts)
	require.NoError(t, err)

	sink := &fakeSink{}
	require.NoError(t, r.Rip(context.Background(), u, sink))

	assert.Len(t, sink.urls, 3)
	assert.Equal(t, []string{"001_", "002_", "003_"}, sink.prefixes)

	// Every item is requested with the page it was found on as referrer
	assert.Equal(t, []string{server.URL + "/p/1", server.URL + "/p/2", server.URL + "/p/3"}, sink.referrers)
}

func TestHTMLGalleryStopsWithSink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<img src="/1.jpg"><img src="/2.jpg"><img src="/3.jpg"><a rel="next" href="/next">next</a>`)
	}))
	defer server.Close()

	u := mustParse(t, server.URL+"/first")

	r, err := For(u, testOptions())
	require.NoError(t, err)

	sink := &fakeSink{stopAfter: 2}
	require.NoError(t, r.Rip(context.Background(), u, sink))

	assert.Len(t, sink.urls, 2)
}

// cancellingSink cancels the rip context on its first item
type cancellingSink struct {
	fakeSink
	cancel context.CancelFunc
}

func (s *cancellingSink) Submit(task *fetch.Task) bool {
	accepted := s.fakeSink.Submit(task)
	s.cancel()
	return accepted
}

func TestHTMLGalleryCancelledWhileSubmitting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<img src="/1.jpg"><img src="/2.jpg">`)
	}))
	defer server.Close()

	u := mustParse(t, server.URL+"/gallery/1")

	r, err := For(u, testOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &cancellingSink{fakeSink: fakeSink{stopAfter: 1}, cancel: cancel}

	err = r.Rip(ctx, u, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.urls, 1)
}

func TestHTMLGalleryFirstPageError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	u := mustParse(t, server.URL+"/gallery/1")

	r, err := For(u, testOptions())
	require.NoError(t, err)

	err = r.Rip(context.Background(), u, &fakeSink{})
	assert.ErrorIs(t, err, ErrPage)

	_, err = r.AlbumTitle(context.Background(), u)
	assert.ErrorIs(t, err, ErrPage)
}

func TestHTMLGalleryCancelled(t *testing.T) {
	u := mustParse(t, "https://example.com/gallery/1")

	r, err := For(u, testOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Rip(ctx, u, &fakeSink{})
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = r.AlbumTitle(ctx, u)
	assert.ErrorIs(t, err, ErrPage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeedRip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, `<?xml version="1.0"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Cat pictures</title>
    <item>
      <title>One</title>
      <enclosure url="/media/1.jpg" type="image/jpeg" length="10"/>
    </item>
    <item>
      <title>Two</title>
      <media:content url="https://cdn.example.com/2.png" medium="image"/>
      <enclosure url="/media/1.jpg" type="image/jpeg" length="10"/>
    </item>
  </channel>
</rss>`)
	}))
	defer server.Close()

	u := mustParse(t, server.URL+"/cats/feed.rss")

	r, err := For(u, testOptions())
	require.NoError(t, err)
	require.IsType(t, &FeedRipper{}, r)

	title, err := r.AlbumTitle(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "Cat pictures", title)

	sink := &fakeSink{}
	require.NoError(t, r.Rip(context.Background(), u, sink))

	assert.ElementsMatch(t, []string{
		server.URL + "/media/1.jpg",
		"https://cdn.example.com/2.png",
	}, sink.urls)
}

func TestAtomFeedRip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title type="text">Atom album</title>
  <entry>
    <link rel="alternate" href="https://example.com/post/1"/>
    <link rel="enclosure" href="https://example.com/files/1.mp4"/>
  </entry>
</feed>`)
	}))
	defer server.Close()

	u := mustParse(t, server.URL+"/album.atom")

	r, err := For(u, testOptions())
	require.NoError(t, err)

	title, err := r.AlbumTitle(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "Atom album", title)

	sink := &fakeSink{}
	require.NoError(t, r.Rip(context.Background(), u, sink))

	assert.Equal(t, []string{"https://example.com/files/1.mp4"}, sink.urls)
}

func TestTextListRip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "my favourites:\nhttps://example.com/a.jpg\nsee https://example.com/b.gif, and again https://example.com/a.jpg\nnot a link: example.org\n")
	}))
	defer server.Close()

	u := mustParse(t, server.URL+"/lists/favs.txt")

	r, err := For(u, testOptions())
	require.NoError(t, err)

	_, err = r.AlbumTitle(context.Background(), u)
	assert.ErrorIs(t, err, ErrNoTitle)

	sink := &fakeSink{}
	require.NoError(t, r.Rip(context.Background(), u, sink))

	assert.Equal(t, []string{"https://example.com/a.jpg", "https://example.com/b.gif"}, sink.urls)
}
