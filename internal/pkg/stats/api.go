package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// API serves the run stats as JSON on / and, when enabled, the Prometheus
// metrics on /metrics
type API struct {
	sync.Mutex
	server  *http.Server
	started bool
	log     *logrus.Entry
}

// NewAPI returns an API listening on addr, prom may be nil
func NewAPI(addr string, stats *Stats, prom *Prometheus, logger *logrus.Entry) *API {
	return &API{
		server: &http.Server{
			Addr:              addr,
			Handler:           Handler(stats, prom),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.WithField("component", "api"),
	}
}

// Handler returns the routes of the API
func Handler(stats *Stats, prom *Prometheus) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats.GetMap()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	if prom != nil {
		mux.Handle("/metrics", prom.Handler())
	}

	return mux
}

// Start begins serving HTTP requests in a separate goroutine
func (a *API) Start() error {
	a.Lock()
	defer a.Unlock()

	if a.started {
		return ErrAPIAlreadyStarted
	}
	a.started = true

	go func() {
		a.log.WithField("addr", a.server.Addr).Info("Starting API server")

		// ListenAndServe returns http.ErrServerClosed when Shutdown is called
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithField("err", err.Error()).Error("API server stopped")
		}
	}()

	return nil
}

// Stop gracefully shuts down the server within the provided timeout
func (a *API) Stop(timeout time.Duration) error {
	a.Lock()
	defer a.Unlock()

	if !a.started {
		return ErrAPINotStarted
	}

	a.log.WithField("addr", a.server.Addr).Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return a.server.Shutdown(ctx)
}
