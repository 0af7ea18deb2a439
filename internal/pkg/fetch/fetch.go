// Package fetch is the transfer layer used by album workers: it downloads a
// single item to its destination and reports exactly one outcome for it.
package fetch

import (
	"context"
	"net/url"
)

// Outcome is the terminal result of a Task
type Outcome int

const (
	// Succeeded means the item was written to Result.Path
	Succeeded Outcome = iota
	// Failed means the item could not be fetched, see Result.Reason
	Failed
	// Exists means the item was already on disk at Result.Path
	Exists
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Exists:
		return "exists"
	default:
		return "unknown"
	}
}

// Task describes one item to download
type Task struct {
	URL         *url.URL
	Destination string
	Referrer    string
	Cookies     map[string]string

	// Replace the extension of Destination with the one matching
	// the Content-Type of the response
	ExtFromMIME bool
}

// Result is posted by a worker once its Task is done
type Result struct {
	Task    *Task
	Outcome Outcome
	Path    string
	Reason  string
	Bytes   int64
}

// Fetcher is implemented by anything able to run a Task. Fetch blocks until
// the transfer is over and never returns nil.
type Fetcher interface {
	Fetch(ctx context.Context, task *Task) *Result
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, task *Task) *Result

// Fetch calls f(ctx, task)
func (f FetcherFunc) Fetch(ctx context.Context, task *Task) *Result {
	return f(ctx, task)
}

func succeeded(task *Task, path string, n int64) *Result {
	return &Result{Task: task, Outcome: Succeeded, Path: path, Bytes: n}
}

func failed(task *Task, reason string) *Result {
	return &Result{Task: task, Outcome: Failed, Reason: reason}
}

func exists(task *Task, path string) *Result {
	return &Result{Task: task, Outcome: Exists, Path: path}
}
