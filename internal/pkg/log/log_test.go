package log

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := Setup(Config{
		JSON:          true,
		Level:         "debug",
		FileOutputDir: dir,
		FilePrefix:    "test",
	})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger.WithFields(logrus.Fields{"album": "example.com_1"}).Info("Creating directory")

	matches, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSetupInvalidLevel(t *testing.T) {
	_, err := Setup(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestSetupDiscardsWithoutOutputs(t *testing.T) {
	logger, err := Setup(Config{})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestElasticsearchURLs(t *testing.T) {
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, elasticsearchURLs("http://es1:9200, http://es2:9200,"))
	assert.Equal(t, []string{"http://es1:9200"}, elasticsearchURLs("http://es1:9200"))
	assert.Empty(t, elasticsearchURLs(""))
}
