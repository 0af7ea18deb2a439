package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("urls-only", false, "")
	flags.Bool("album-titles", true, "")
	flags.Int("workers", 4, "")
	flags.Bool("prometheus", false, "")
	flags.String("job", "", "")

	require.NoError(t, flags.Parse([]string{"--urls-only", "--workers", "8", "--prometheus"}))

	BindFlags(flags)
	defer viper.Reset()

	require.NoError(t, InitConfig())
	cfg := Get()

	assert.True(t, cfg.URLsOnly.Save)
	assert.True(t, cfg.AlbumTitles.Save)
	assert.Equal(t, 8, cfg.Workers)

	// --prometheus implies --api
	assert.True(t, cfg.Prometheus)
	assert.True(t, cfg.API)

	require.NoError(t, GenerateJobConfig())
	assert.NotEmpty(t, cfg.Job)
	assert.Equal(t, "jobs/"+cfg.Job, cfg.JobPath)
	assert.Equal(t, "rips", cfg.OutputDir)
	assert.Contains(t, cfg.UserAgent, "Ripley/")
}
