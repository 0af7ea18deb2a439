package cmd

import (
	"fmt"
	"os"

	"github.com/internetarchive/Ripley/internal/pkg/config"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "Ripley",
	Short: "Album downloader",
	Long: `Ripley downloads whole albums: image galleries, media feeds and link lists.
Every album is saved in its own directory, each item only once.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize config here, after cobra has parsed command line flags
		if err := config.InitConfig(); err != nil {
			fmt.Printf("error initializing config: %s", err)
			os.Exit(1)
		}

		cfg = config.Get()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Run the root command
func Run() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Define flags and configuration settings
	rootCmd.PersistentFlags().String("log-level", "info", "stdout log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config-file", "", "config file (default is $HOME/ripley-config.yaml)")

	// Bind flags to viper
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(getCMDs())
	rootCmd.AddCommand(versionCmd)

	return rootCmd.Execute()
}
