package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/telanflow/cookiejar"
)

// Bytes looked at when the Content-Type header is missing or unknown
const sniffLength = 3072

// Options configures an HTTP Client
type Options struct {
	Fs         afero.Fs
	UserAgent  string
	CookieFile string
	MaxRetry   int
	RetryDelay time.Duration
	Timeout    time.Duration

	// Used by tests, defaults to http.DefaultTransport
	Transport http.RoundTripper
}

// Client is the HTTP implementation of Fetcher
type Client struct {
	fs         afero.Fs
	http       *http.Client
	userAgent  string
	maxRetry   int
	retryDelay time.Duration
	log        *logrus.Entry
}

// New returns a Client writing to opts.Fs (the OS filesystem by default)
func New(opts Options, logger *logrus.Entry) (*Client, error) {
	c := &Client{
		fs:         opts.Fs,
		userAgent:  opts.UserAgent,
		maxRetry:   opts.MaxRetry,
		retryDelay: opts.RetryDelay,
		log:        logger.WithField("component", "fetch"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
	}

	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}

	if c.retryDelay == 0 {
		c.retryDelay = time.Second
	}

	// Parse input cookie file if specified
	if opts.CookieFile != "" {
		if _, err := os.Stat(opts.CookieFile); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCookieFile, err)
		}

		jar, err := cookiejar.NewFileJar(opts.CookieFile, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCookieFile, err)
		}
		c.http.Jar = jar
	}

	return c, nil
}

// HTTPClient returns the underlying client, sharing the cookie jar, so
// that album pages are requested with the same session as the items
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// UserAgent returns the User-Agent header sent with every request
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Fetch downloads task.URL to task.Destination, retrying on transport
// errors and 5xx/429 responses up to MaxRetry times.
func (c *Client) Fetch(ctx context.Context, task *Task) *Result {
	destination := task.Destination
	logger := c.log.WithFields(logrus.Fields{
		"url":  utils.CanonicalURL(task.URL),
		"path": destination,
	})

	if !task.ExtFromMIME && utils.FileExists(c.fs, destination) {
		return exists(task, destination)
	}

	resp, reason := c.get(ctx, task)
	if resp == nil {
		logger.WithField("reason", reason).Warn("Item download failed")
		return failed(task, reason)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logger.WithField("statusCode", resp.StatusCode).Warn("Item download failed")
		return failed(task, resp.Status)
	}

	body := bufio.NewReaderSize(resp.Body, sniffLength)

	if task.ExtFromMIME {
		if ext := extensionFor(resp.Header.Get("Content-Type"), body); ext != "" {
			destination = filepath.Join(filepath.Dir(destination), utils.TrimExtension(filepath.Base(destination))+ext)
		}

		if utils.FileExists(c.fs, destination) {
			return exists(task, destination)
		}
	}

	n, err := c.write(destination, body)
	if err != nil {
		logger.WithField("err", err.Error()).Error("unable to write item")
		return failed(task, err.Error())
	}

	logger.WithFields(logrus.Fields{
		"path": destination,
		"size": humanize.Bytes(uint64(n)),
	}).Debug("Item downloaded")

	return succeeded(task, destination, n)
}

func (c *Client) get(ctx context.Context, task *Task) (*http.Response, string) {
	var reason string

	for attempt := 0; attempt <= c.maxRetry; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err().Error()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL.String(), nil)
		if err != nil {
			return nil, err.Error()
		}

		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		if task.Referrer != "" {
			req.Header.Set("Referer", task.Referrer)
		}

		for name, value := range task.Cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}

		resp, err := c.http.Do(req)
		if err != nil {
			reason = err.Error()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, reason
			}
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			reason = resp.Status
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			continue
		}

		return resp, ""
	}

	return nil, reason
}

// write stores the body next to its destination first so that a partial
// file is never mistaken for an existing item on the next run
func (c *Client) write(destination string, body io.Reader) (int64, error) {
	if err := c.fs.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return 0, err
	}

	partial := destination + ".part"

	f, err := c.fs.Create(partial)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		c.fs.Remove(partial)
		return n, err
	}

	return n, c.fs.Rename(partial, destination)
}

func extensionFor(contentType string, body *bufio.Reader) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}

	// Peek returns what it could read along with io.EOF on short bodies
	head, _ := body.Peek(sniffLength)

	return mimetype.Detect(head).Extension()
}
