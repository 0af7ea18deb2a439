// Package log sets up the logrus logger shared by every Ripley component.
// Entries go to stdout, to rotated files under the job directory and,
// optionally, to an Elasticsearch index.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/internetarchive/elogrus"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/olivere/elastic/v7"
	"github.com/sirupsen/logrus"
)

// Config holds the configuration for the logger
type Config struct {
	JSON          bool
	Level         string
	StdoutEnabled bool

	// Empty disables file logging
	FileOutputDir string
	FilePrefix    string
	RotationTime  time.Duration

	// Empty disables Elasticsearch logging
	ElasticsearchURL         string
	ElasticsearchIndexPrefix string
}

// Setup builds the logger according to cfg. Files are written under
// cfg.FileOutputDir as <prefix>_<date>.log and rotated every RotationTime.
func Setup(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var writers []io.Writer
	if cfg.StdoutEnabled {
		writers = append(writers, os.Stdout)
	}

	if cfg.FileOutputDir != "" {
		writer, err := newRotatedFile(cfg)
		if err != nil {
			return nil, err
		}
		writers = append(writers, writer)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	if cfg.ElasticsearchURL != "" {
		if err := addElasticsearchHook(logger, cfg); err != nil {
			return nil, err
		}
	}

	return logger, nil
}

func newRotatedFile(cfg Config) (io.Writer, error) {
	if err := os.MkdirAll(cfg.FileOutputDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	prefix := cfg.FilePrefix
	if prefix == "" {
		prefix = "ripley"
	}

	rotation := cfg.RotationTime
	if rotation == 0 {
		rotation = time.Hour * 6
	}

	writer, err := rotatelogs.New(
		fmt.Sprintf("%s_%s.log", path.Join(cfg.FileOutputDir, prefix), "%Y%m%d%H%M%S"),
		rotatelogs.WithRotationTime(rotation),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return writer, nil
}

func addElasticsearchHook(logger *logrus.Logger, cfg Config) error {
	hostname, err := os.Hostname()
	if err != nil {
		return err
	}

	client, err := elastic.NewClient(elastic.SetURL(elasticsearchURLs(cfg.ElasticsearchURL)...), elastic.SetSniff(false))
	if err != nil {
		return fmt.Errorf("unable to connect to elasticsearch: %w", err)
	}

	prefix := cfg.ElasticsearchIndexPrefix
	if prefix == "" {
		prefix = "ripley"
	}

	hook, err := elogrus.NewAsyncElasticHook(client, hostname, logger.GetLevel(), prefix+"-"+time.Now().Format("2006.01.02"))
	if err != nil {
		return fmt.Errorf("unable to create elasticsearch hook: %w", err)
	}

	logger.Hooks.Add(hook)

	return nil
}

// elasticsearchURLs splits a comma-separated list of nodes
func elasticsearchURLs(raw string) []string {
	var urls []string

	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	return urls
}
