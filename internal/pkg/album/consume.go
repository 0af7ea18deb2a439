package album

import (
	"path/filepath"

	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
)

// consume is the single reader of the worker results, it runs until the
// pool is closed by Finish
func (a *Album) consume() {
	defer close(a.done)

	for result := range a.pool.Results() {
		a.settle(result)
	}

	a.checkIfComplete()
}

func (a *Album) settle(result *fetch.Result) {
	identity := Identity(result.Task.URL)

	switch result.Outcome {
	case fetch.Succeeded:
		a.ledger.MarkCompleted(identity, result.Path)
		a.reporter.Notify(a, &Event{
			Kind:    DownloadComplete,
			Message: utils.RemoveCWD(result.Path),
		})
	case fetch.Exists:
		a.ledger.MarkCompleted(identity, result.Path)

		path, err := filepath.Abs(result.Path)
		if err != nil {
			path = result.Path
		}

		a.reporter.Notify(a, &Event{
			Kind:    DownloadWarn,
			Message: identity + " already saved as " + path,
		})
	default:
		a.ledger.MarkErrored(identity, result.Reason)
		a.reporter.Notify(a, &Event{
			Kind:    DownloadErrored,
			Message: identity + " : " + result.Reason,
		})
	}

	a.inflight.Add(-1)

	a.log.WithFields(logrus.Fields{
		"url":     identity,
		"outcome": result.Outcome.String(),
		"status":  a.reporter.StatusText(),
	}).Debug("Item settled")

	a.checkIfComplete()
	a.checkIfDrained()
}

// checkIfComplete moves the album to Complete, once, when submissions are
// closed and nothing is pending anymore. A cancelled album is stopped
// instead.
func (a *Album) checkIfComplete() {
	if a.ctx.Err() != nil {
		a.Stop()
		return
	}

	if !a.closed.Load() || a.inflight.Load() > 0 {
		return
	}

	counts := a.ledger.Counts()
	if counts.Pending > 0 || counts.Total() == 0 {
		return
	}

	if !a.state.CompareAndSwap(int32(Active), int32(Complete)) {
		return
	}

	a.log.WithFields(logrus.Fields{
		"path":   utils.RemoveCWD(a.WorkingDir()),
		"status": a.reporter.StatusText(),
	}).Info("Rip complete")

	a.reporter.Notify(a, &Event{
		Kind:    RipComplete,
		Message: a.WorkingDir(),
	})

	a.drainOnce.Do(func() { close(a.drained) })
}

// checkIfDrained releases Wait once a stopped album has no download left
func (a *Album) checkIfDrained() {
	if a.State() == Stopped && a.inflight.Load() == 0 {
		a.drainOnce.Do(func() { close(a.drained) })
	}
}
