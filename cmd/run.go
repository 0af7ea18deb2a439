package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/internetarchive/Ripley/internal/pkg/album"
	"github.com/internetarchive/Ripley/internal/pkg/config"
	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/internetarchive/Ripley/internal/pkg/log"
	"github.com/internetarchive/Ripley/internal/pkg/ripper"
	"github.com/internetarchive/Ripley/internal/pkg/stats"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const lockFile = ".ripley.lock"

// ErrLocked is returned when another Ripley process uses the output directory
var ErrLocked = errors.New("another ripley instance is using this output directory")

// session holds what every album of a run shares
type session struct {
	fs         afero.Fs
	fetcher    fetch.Fetcher
	ripperOpts ripper.Options
	albumOpts  album.Options
	log        *logrus.Entry

	ripped      int
	failed      int
	interrupted int
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := config.GenerateJobConfig(); err != nil {
		return err
	}

	logConfig := log.Config{
		JSON:                     cfg.JSON,
		Level:                    cfg.StdoutLogLevel,
		StdoutEnabled:            !cfg.LiveStats,
		ElasticsearchURL:         cfg.ElasticSearchURLs,
		ElasticsearchIndexPrefix: cfg.ElasticSearchIndexPrefix,
	}

	if !cfg.NoFileLogging {
		logConfig.FileOutputDir = cfg.LogFileOutputDir
	}

	logger, err := log.Setup(logConfig)
	if err != nil {
		return err
	}

	entry := logger.WithField("job", cfg.Job)

	// One process per output tree
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.OutputDir, lockFile))

	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer lock.Unlock()

	fetcher, err := fetch.New(fetch.Options{
		UserAgent:  cfg.UserAgent,
		CookieFile: cfg.Cookies,
		MaxRetry:   cfg.MaxRetry,
		Timeout:    time.Duration(cfg.HTTPTimeout) * time.Second,
	}, entry)
	if err != nil {
		return err
	}

	var prom *stats.Prometheus
	if cfg.Prometheus {
		prom = stats.NewPrometheus(cfg.PrometheusPrefix, cfg.Job)
	}

	runStats := stats.New(cfg.Job, prom)

	if cfg.API {
		api := stats.NewAPI(":"+strconv.Itoa(cfg.APIPort), runStats, prom, entry)
		if err := api.Start(); err != nil {
			return err
		}
		defer api.Stop(5 * time.Second)
	}

	if cfg.LiveStats {
		printer := stats.NewPrinter(runStats, os.Stdout, 250*time.Millisecond)
		printer.Start()
		defer printer.Stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{
		fs:      afero.NewOsFs(),
		fetcher: fetcher,
		ripperOpts: ripper.Options{
			Client:    fetcher.HTTPClient(),
			UserAgent: cfg.UserAgent,
			MaxPages:  cfg.MaxPages,
			SaveOrder: cfg.SaveOrder,
			Logger:    entry,
		},
		albumOpts: album.Options{
			OutputDir:       cfg.OutputDir,
			URLsOnly:        cfg.URLsOnly.Save,
			SaveAlbumTitles: cfg.AlbumTitles.Save,
			AllowDuplicates: cfg.AllowDuplicates,
			Test:            cfg.Test,
			Workers:         cfg.Workers,
			Observer:        album.Observers{logObserver(entry), runStats},
			Logger:          entry,
		},
		log: entry,
	}

	return s.ripAll(ctx, cfg.InputSeeds)
}

// ripAll rips the seeds one after the other, a failed album does not stop
// the run
func (s *session) ripAll(ctx context.Context, seeds []string) error {
	for _, seed := range seeds {
		if ctx.Err() != nil {
			s.log.Warn("Interrupted, skipping the remaining albums")
			break
		}

		if err := s.ripAlbum(ctx, seed); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.interrupted++
				s.log.WithField("url", seed).Warn("Album interrupted")
				continue
			}

			s.failed++
			s.log.WithFields(logrus.Fields{
				"url": seed,
				"err": err.Error(),
			}).Error("Unable to rip album")
			continue
		}

		s.ripped++
	}

	s.log.WithFields(logrus.Fields{
		"ripped":      s.ripped,
		"failed":      s.failed,
		"interrupted": s.interrupted,
	}).Info("Done")

	if s.failed > 0 && s.ripped == 0 {
		return fmt.Errorf("all %d albums failed", s.failed)
	}

	return nil
}

func (s *session) ripAlbum(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ripper.ErrMalformedURL, err)
	}

	r, err := ripper.For(u, s.ripperOpts)
	if err != nil {
		return err
	}

	u, err = r.SanitizeURL(u)
	if err != nil {
		return err
	}

	options := s.albumOpts
	options.Fs = s.fs
	options.AllowDuplicates = options.AllowDuplicates || r.AllowDuplicates()

	a := album.New(ctx, u, r, s.fetcher, options)

	if err := a.Start(); err != nil {
		a.Finish()
		return err
	}

	ripErr := r.Rip(ctx, u, a)

	// Running downloads are finished even when the rip failed halfway
	a.Finish()

	// A cancelled album is stopped, not ripped
	if err := ctx.Err(); err != nil {
		return err
	}

	return ripErr
}

// logObserver logs every album event
func logObserver(logger *logrus.Entry) album.Observer {
	return album.ObserverFunc(func(source album.Source, event *album.Event) {
		fields := logrus.Fields{
			"event":  event.Kind.String(),
			"status": source.StatusText(),
		}

		switch event.Kind {
		case album.DownloadComplete:
			fields["path"] = event.Message
			logger.WithFields(fields).Info("Downloaded")
		case album.DownloadWarn:
			logger.WithFields(fields).Warn(event.Message)
		case album.DownloadErrored:
			logger.WithFields(fields).Error(event.Message)
		case album.RipComplete:
			fields["path"] = event.Message
			logger.WithFields(fields).Info("Album ripped")
		}
	})
}
