// Package album orchestrates the download of one album: it deduplicates the
// items a ripper submits, schedules them on a bounded worker pool, records
// every item's terminal outcome and reports progress to an observer.
//
// An album goes through Created -> Active -> Complete, or to Stopped when
// it is cancelled or truncated by test mode. Worker results are consumed by
// a single goroutine owned by the album, which is the only writer of
// terminal states.
package album

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// State of an album
type State int32

const (
	// Created albums have not accepted any item yet
	Created State = iota
	// Active albums accepted at least one item
	Active
	// Complete albums have every accepted item in a terminal state
	Complete
	// Stopped albums were cancelled before completion
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Active:
		return "active"
	case Complete:
		return "complete"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configures an Album
type Options struct {
	// Directory under which the album directory is created
	OutputDir string
	// Record item URLs to urls.txt instead of downloading them
	URLsOnly bool
	// Name the album directory after the ripper's title
	SaveAlbumTitles bool
	// Skip the duplicate check entirely
	AllowDuplicates bool
	// Only accept a single item, then stop
	Test bool
	// Size of the worker pool
	Workers int

	// Defaults to the OS filesystem
	Fs       afero.Fs
	Observer Observer
	Logger   *logrus.Entry
}

// Album is the download orchestrator of a single album URL
type Album struct {
	ctx      context.Context
	url      *url.URL
	options  Options
	fs       afero.Fs
	ledger   *Ledger
	resolver *WorkingDirectoryResolver
	pool     *WorkerPool
	reporter *ProgressReporter
	log      *logrus.Entry

	submitMu   sync.Mutex
	workingDir atomic.Value
	state      atomic.Int32
	closed     atomic.Bool
	inflight   atomic.Int64

	finishOnce sync.Once
	done       chan struct{}
	drainOnce  sync.Once
	drained    chan struct{}
	unwatch    func() bool
}

// New returns an album for u and starts its result consumer. Finish must
// be called once the ripper is done submitting.
func New(ctx context.Context, u *url.URL, titler Titler, fetcher fetch.Fetcher, options Options) *Album {
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}

	if options.Logger == nil {
		options.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	logger := options.Logger.WithFields(logrus.Fields{
		"album": utils.CanonicalURL(u),
		"host":  titler.Host(),
	})

	ledger := NewLedger(options.AllowDuplicates)

	a := &Album{
		ctx:      ctx,
		url:      u,
		options:  options,
		fs:       options.Fs,
		ledger:   ledger,
		resolver: NewWorkingDirectoryResolver(options.Fs, options.OutputDir, options.SaveAlbumTitles, titler, logger),
		pool:     NewWorkerPool(ctx, options.Workers, fetcher),
		reporter: NewProgressReporter(ledger, options.Observer, logger),
		log:      logger,
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}

	// Cancelling ctx stops the album
	a.unwatch = context.AfterFunc(ctx, a.Stop)

	go a.consume()

	return a
}

// Identity returns the dedup key of an item URL
func Identity(u *url.URL) string {
	return utils.CanonicalURL(u)
}

// Start resolves and creates the working directory. A failure here is
// fatal for the whole album.
func (a *Album) Start() error {
	_, err := a.resolveWorkingDir()
	return err
}

// Submit queues one item. It returns false if the item was rejected, as a
// duplicate or because the album is stopped, and true once it was either
// recorded to urls.txt or handed to the worker pool.
func (a *Album) Submit(task *fetch.Task) bool {
	if task == nil || task.URL == nil {
		return false
	}

	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	if a.ctx.Err() != nil {
		a.Stop()
	}

	if a.State() == Stopped || a.closed.Load() {
		return false
	}

	// Only one item is ripped in test mode
	if a.options.Test && a.ledger.Counts().Total() > 0 {
		a.log.Info("Test mode, stopping after the first item")
		a.Stop()
		return false
	}

	workingDir, err := a.resolveWorkingDir()
	if err != nil {
		a.log.WithField("err", err.Error()).Error("unable to set working directory")
		return false
	}

	identity := Identity(task.URL)

	if task.Destination == "" {
		task.Destination = filepath.Join(workingDir, fetch.FileName(task.URL))
	}

	if a.ledger.IsKnown(identity) {
		a.log.WithFields(logrus.Fields{
			"url":  identity,
			"path": utils.RemoveCWD(task.Destination),
		}).Info("Skipping item, already attempted")
		return false
	}

	a.state.CompareAndSwap(int32(Created), int32(Active))

	if a.options.URLsOnly {
		a.recordURL(workingDir, identity)
		return true
	}

	a.ledger.MarkPending(identity, task.Destination)
	a.inflight.Add(1)

	if err := a.pool.Enqueue(task); err != nil {
		a.inflight.Add(-1)
		a.ledger.Release(identity)
		a.checkIfDrained()
		return false
	}

	return true
}

// SubmitURL queues u, saved in the working directory under its own name
func (a *Album) SubmitURL(u *url.URL) bool {
	return a.SubmitURLWithPrefix(u, "", "")
}

// SubmitURLWithPrefix queues u, saved as <subdirectory>/<prefix><name>
// inside the working directory
func (a *Album) SubmitURLWithPrefix(u *url.URL, prefix, subdirectory string) bool {
	return a.SubmitWithPrefix(&fetch.Task{URL: u}, prefix, subdirectory)
}

// SubmitWithPrefix is SubmitURLWithPrefix for a full task, its referrer
// and cookies are kept and its destination is replaced
func (a *Album) SubmitWithPrefix(task *fetch.Task, prefix, subdirectory string) bool {
	if task == nil || task.URL == nil {
		return false
	}

	workingDir, err := a.resolveWorkingDir()
	if err != nil {
		a.log.WithField("err", err.Error()).Error("unable to set working directory")
		return false
	}

	name := prefix + fetch.FileName(task.URL)

	task.Destination = filepath.Join(workingDir, name)
	if subdirectory != "" {
		task.Destination = filepath.Join(workingDir, utils.FilesystemSafe(subdirectory), name)
	}

	return a.Submit(task)
}

// Stop cancels the album: further submissions are rejected and running
// downloads finish on their own. Stopping a complete album is a no-op.
func (a *Album) Stop() {
	for {
		state := a.State()
		if state == Complete || state == Stopped {
			return
		}

		if a.state.CompareAndSwap(int32(state), int32(Stopped)) {
			a.pool.Stop()
			a.log.Warn("Album stopped")
			a.checkIfDrained()
			return
		}
	}
}

// Finish closes the album to submissions and waits until every running
// download is settled. Calling it more than once is fine.
func (a *Album) Finish() {
	a.finishOnce.Do(func() {
		a.submitMu.Lock()
		a.closed.Store(true)
		a.submitMu.Unlock()

		a.pool.Close()
		<-a.done
		a.unwatch()

		if a.state.CompareAndSwap(int32(Created), int32(Stopped)) {
			a.log.Warn("No item found, nothing to rip")
		}
	})
}

// Wait blocks until the album is Complete, or Stopped with no download
// left running, until Finish returned, or until ctx is done
func (a *Album) Wait(ctx context.Context) error {
	select {
	case <-a.drained:
		return nil
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current state of the album
func (a *Album) State() State {
	return State(a.state.Load())
}

// IsStopped reports whether the album refuses new items
func (a *Album) IsStopped() bool {
	return a.State() == Stopped || a.ctx.Err() != nil
}

// URL returns the album URL
func (a *Album) URL() *url.URL {
	return a.url
}

// WorkingDir returns the album directory, empty until it is resolved
func (a *Album) WorkingDir() string {
	if dir, ok := a.workingDir.Load().(string); ok {
		return dir
	}
	return ""
}

// Ledger exposes the album membership sets
func (a *Album) Ledger() *Ledger {
	return a.ledger
}

// Counts returns the sizes of the pending, completed and errored sets
func (a *Album) Counts() Counts {
	return a.ledger.Counts()
}

// Count returns the number of items attempted so far, completed or errored
func (a *Album) Count() int {
	counts := a.ledger.Counts()
	return counts.Completed + counts.Errored
}

// CompletionPercentage is an integer between 0 and 100
func (a *Album) CompletionPercentage() int {
	return a.reporter.CompletionPercentage()
}

// StatusText is a human readable summary of the rip progress
func (a *Album) StatusText() string {
	return a.reporter.StatusText()
}

func (a *Album) resolveWorkingDir() (string, error) {
	if dir := a.WorkingDir(); dir != "" {
		return dir, nil
	}

	dir, err := a.resolver.Resolve(a.ctx, a.url)
	if err != nil {
		return "", err
	}

	a.workingDir.Store(dir)

	return dir, nil
}
