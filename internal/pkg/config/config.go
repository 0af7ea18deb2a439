package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Toggle is a nested `<name>.save` switch in the configuration file
type Toggle struct {
	Save bool `mapstructure:"save"`
}

// Config holds all configuration for our program, parsed from various sources
// The `mapstructure` tags are used to map the fields to the viper configuration
type Config struct {
	Job     string `mapstructure:"job"`
	JobPath string

	OutputDir       string `mapstructure:"output-dir"`
	Workers         int    `mapstructure:"workers"`
	Test            bool   `mapstructure:"test"`
	AllowDuplicates bool   `mapstructure:"allow-duplicates"`
	UserAgent       string `mapstructure:"user-agent"`
	Cookies         string `mapstructure:"cookies"`
	MaxRetry        int    `mapstructure:"max-retry"`
	HTTPTimeout     int    `mapstructure:"http-timeout"`
	MaxPages        int    `mapstructure:"max-pages"`
	SaveOrder       bool   `mapstructure:"save-order"`

	// Record item URLs to urls.txt instead of downloading them
	URLsOnly Toggle `mapstructure:"urls_only"`
	// Name the album directory after the title the ripper finds
	AlbumTitles Toggle `mapstructure:"album_titles"`

	// Logging
	JSON                     bool   `mapstructure:"json"`
	StdoutLogLevel           string `mapstructure:"log-level"`
	NoFileLogging            bool   `mapstructure:"no-log-file"`
	LogFileOutputDir         string `mapstructure:"log-file-output-dir"`
	ElasticSearchURLs        string `mapstructure:"es-url"`
	ElasticSearchIndexPrefix string `mapstructure:"es-index-prefix"`

	// Stats
	LiveStats        bool   `mapstructure:"live-stats"`
	API              bool   `mapstructure:"api"`
	APIPort          int    `mapstructure:"api-port"`
	Prometheus       bool   `mapstructure:"prometheus"`
	PrometheusPrefix string `mapstructure:"prometheus-prefix"`

	InputSeeds []string // Special field to store the input URLs
}

var (
	config *Config
	once   sync.Once

	// Flags whose viper key differs from the flag name
	flagKeys = map[string]string{
		"urls-only":    "urls_only.save",
		"album-titles": "album_titles.save",
	}
)

// InitConfig initializes the configuration
// Flags -> Env -> Config file
// Latest has precedence over the rest
func InitConfig() error {
	var err error
	once.Do(func() {
		config = &Config{}

		// Check if a config file is provided via flag
		if configFile := viper.GetString("config-file"); configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				viper.AddConfigPath(home)
			}

			viper.SetConfigType("yaml")
			viper.SetConfigName("ripley-config")
		}

		viper.SetEnvPrefix("RIPLEY")
		replacer := strings.NewReplacer("-", "_", ".", "_")
		viper.SetEnvKeyReplacer(replacer)
		viper.AutomaticEnv()

		if readErr := viper.ReadInConfig(); readErr == nil {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}

		handleFlagsEdgeCases()

		err = viper.Unmarshal(config)
	})
	return err
}

// BindFlags binds the flags to the viper configuration
// This is needed because viper doesn't support same flag name accross multiple commands
// Details here: https://github.com/spf13/viper/issues/375#issuecomment-794668149
func BindFlags(flagSet *pflag.FlagSet) {
	flagSet.VisitAll(func(flag *pflag.Flag) {
		if key, ok := flagKeys[flag.Name]; ok {
			viper.BindPFlag(key, flag)
			return
		}
		viper.BindPFlag(flag.Name, flag)
	})
}

// Get returns the config struct
func Get() *Config {
	return config
}

// GenerateJobConfig fills the fields derived from the parsed flags
func GenerateJobConfig() error {
	// If the job name isn't specified, we generate a random name
	if config.Job == "" {
		UUID, err := uuid.NewUUID()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"err": err.Error(),
			}).Error("unable to generate job name")
			return err
		}

		config.Job = UUID.String()
	}

	config.JobPath = path.Join("jobs", config.Job)

	if config.OutputDir == "" {
		config.OutputDir = "rips"
	}

	if config.LogFileOutputDir == "" {
		config.LogFileOutputDir = path.Join(config.JobPath, "logs")
	}

	if config.Workers < 1 {
		config.Workers = 1
	}

	if config.Test {
		logrus.Warn("Test mode enabled, only one item per album will be ripped")
	}

	if config.UserAgent == "" {
		config.UserAgent = utils.UserAgent()
	}

	return nil
}

func handleFlagsEdgeCases() {
	if viper.GetBool("live-stats") {
		// The live stats printer owns the terminal
		viper.Set("log-level", "warn")
	}

	if viper.GetBool("prometheus") {
		viper.Set("api", true)
	}
}
