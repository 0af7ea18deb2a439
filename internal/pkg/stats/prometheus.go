package stats

import (
	"net/http"
	"os"

	"github.com/internetarchive/Ripley/internal/pkg/album"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var labels = []string{"job", "hostname", "version"}

// Prometheus holds the metrics exposed on /metrics
type Prometheus struct {
	registry *prometheus.Registry
	values   []string

	items         *prometheus.CounterVec
	ripsCompleted *prometheus.CounterVec
	pending       *prometheus.GaugeVec
	completion    *prometheus.GaugeVec
}

// NewPrometheus returns the metrics of job, every name is prefixed with prefix
func NewPrometheus(prefix, job string) *Prometheus {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		values:   []string{job, hostname, utils.GetVersion().Version},
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "items_total", Help: "Total number of items settled, by outcome"},
			append([]string{"outcome"}, labels...),
		),
		ripsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: prefix + "rips_completed_total", Help: "Total number of albums ripped"},
			labels,
		),
		pending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: prefix + "items_pending", Help: "Number of items being downloaded"},
			labels,
		),
		completion: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: prefix + "album_completion_percentage", Help: "Completion percentage of the current album"},
			labels,
		),
	}

	p.registry.MustRegister(p.items, p.ripsCompleted, p.pending, p.completion)

	return p
}

func (p *Prometheus) observe(source album.Source, event *album.Event) {
	switch event.Kind {
	case album.DownloadComplete:
		p.items.WithLabelValues(append([]string{"completed"}, p.values...)...).Inc()
	case album.DownloadWarn:
		p.items.WithLabelValues(append([]string{"exists"}, p.values...)...).Inc()
	case album.DownloadErrored:
		p.items.WithLabelValues(append([]string{"errored"}, p.values...)...).Inc()
	case album.RipComplete:
		p.ripsCompleted.WithLabelValues(p.values...).Inc()
	}

	if source != nil {
		p.pending.WithLabelValues(p.values...).Set(float64(source.Counts().Pending))
		p.completion.WithLabelValues(p.values...).Set(float64(source.CompletionPercentage()))
	}
}

// Handler serves the metrics in the Prometheus text format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
