// Package stats keeps the counters of a Ripley run. Stats is an
// album.Observer: it is fed by the album events and read by the live
// printer, the API and Prometheus.
package stats

import (
	"sync"
	"time"

	"github.com/internetarchive/Ripley/internal/pkg/album"
	"github.com/paulbellamy/ratecounter"
)

// Stats of a run, safe for concurrent use
type Stats struct {
	job       string
	startTime time.Time

	ItemsPerSecond *ratecounter.RateCounter
	Completed      *ratecounter.Counter
	Errored        *ratecounter.Counter
	Existing       *ratecounter.Counter
	Albums         *ratecounter.Counter

	prometheus *Prometheus

	mu         sync.Mutex
	album      string
	workingDir string
	status     string
}

// New returns the stats of job. prom may be nil.
func New(job string, prom *Prometheus) *Stats {
	return &Stats{
		job:            job,
		startTime:      time.Now(),
		ItemsPerSecond: ratecounter.NewRateCounter(1 * time.Second),
		Completed:      new(ratecounter.Counter),
		Errored:        new(ratecounter.Counter),
		Existing:       new(ratecounter.Counter),
		Albums:         new(ratecounter.Counter),
		prometheus:     prom,
	}
}

// Update implements album.Observer
func (s *Stats) Update(source album.Source, event *album.Event) {
	switch event.Kind {
	case album.DownloadComplete:
		s.Completed.Incr(1)
		s.ItemsPerSecond.Incr(1)
	case album.DownloadWarn:
		s.Existing.Incr(1)
		s.ItemsPerSecond.Incr(1)
	case album.DownloadErrored:
		s.Errored.Incr(1)
		s.ItemsPerSecond.Incr(1)
	case album.RipComplete:
		s.Albums.Incr(1)
	}

	if source != nil {
		s.mu.Lock()
		if source.URL() != nil {
			s.album = source.URL().String()
		}
		s.workingDir = source.WorkingDir()
		s.status = source.StatusText()
		s.mu.Unlock()
	}

	if s.prometheus != nil {
		s.prometheus.observe(source, event)
	}
}

// Job returns the name of the job
func (s *Stats) Job() string {
	return s.job
}

// Elapsed returns the time since the stats were created
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// Current returns the album being ripped and its last status line
func (s *Stats) Current() (albumURL, workingDir, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.album, s.workingDir, s.status
}

// GetMap returns a map of the current stats, served by the API
func (s *Stats) GetMap() map[string]interface{} {
	albumURL, workingDir, status := s.Current()

	return map[string]interface{}{
		"job":            s.job,
		"album":          albumURL,
		"workingDir":     workingDir,
		"status":         status,
		"itemsPerSecond": s.ItemsPerSecond.Rate(),
		"completed":      s.Completed.Value(),
		"errored":        s.Errored.Value(),
		"existing":       s.Existing.Value(),
		"albums":         s.Albums.Value(),
		"elapsed":        s.Elapsed().Round(time.Second).String(),
	}
}
