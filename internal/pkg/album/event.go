package album

import "net/url"

// StatusKind is the kind of a status Event
type StatusKind int

const (
	// DownloadComplete is sent when an item was written
	DownloadComplete StatusKind = iota
	// DownloadErrored is sent when an item failed
	DownloadErrored
	// DownloadWarn is sent when an item was already on disk
	DownloadWarn
	// RipComplete is sent once, when every item of the album reached a terminal state
	RipComplete
)

func (k StatusKind) String() string {
	switch k {
	case DownloadComplete:
		return "download_complete"
	case DownloadErrored:
		return "download_errored"
	case DownloadWarn:
		return "download_warn"
	case RipComplete:
		return "rip_complete"
	default:
		return "unknown"
	}
}

// Event is a status update pushed to the album observer
type Event struct {
	Kind    StatusKind
	Message string
}

// Source is the album as seen by an observer
type Source interface {
	URL() *url.URL
	WorkingDir() string
	CompletionPercentage() int
	StatusText() string
	Counts() Counts
}

// Observer receives album status events. Update is called from the
// album's result consumer goroutine, one event at a time.
type Observer interface {
	Update(source Source, event *Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(source Source, event *Event)

// Update calls f(source, event)
func (f ObserverFunc) Update(source Source, event *Event) {
	f(source, event)
}

// Observers fans events out to several observers, in order
type Observers []Observer

// Update forwards the event to every non-nil observer
func (o Observers) Update(source Source, event *Event) {
	for _, observer := range o {
		if observer != nil {
			observer.Update(source, event)
		}
	}
}
