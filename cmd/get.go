package cmd

import (
	"github.com/internetarchive/Ripley/internal/pkg/config"
	"github.com/spf13/cobra"
)

func getCMDs() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Rip albums",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				cmd.Help()
			}
		},
	}

	getCMDsFlags(getCmd)
	config.BindFlags(getCmd.PersistentFlags())

	getCmd.AddCommand(getURLCmd)
	getCmd.AddCommand(getListCmd)

	return getCmd
}

func getCMDsFlags(getCmd *cobra.Command) {
	getCmd.PersistentFlags().String("job", "", "Job name to use, will determine the path for the log files.")
	getCmd.PersistentFlags().String("output-dir", "rips", "Directory under which every album directory is created.")
	getCmd.PersistentFlags().IntP("workers", "w", 4, "Number of concurrent downloads per album.")
	getCmd.PersistentFlags().Bool("test", false, "Only rip the first item of each album.")
	getCmd.PersistentFlags().Bool("allow-duplicates", false, "Download an item again even if it was already attempted in this album.")
	getCmd.PersistentFlags().Bool("urls-only", false, "Write the item URLs to urls.txt in the album directory instead of downloading them.")
	getCmd.PersistentFlags().Bool("album-titles", true, "Name album directories after the album title when the site provides one.")
	getCmd.PersistentFlags().Bool("save-order", true, "Prefix file names with their position in the album.")
	getCmd.PersistentFlags().Int("max-pages", 0, "Maximum number of album pages to follow, 0 means no limit.")

	// Network flags
	getCmd.PersistentFlags().String("user-agent", "", "User agent to use when requesting URLs.")
	getCmd.PersistentFlags().String("cookies", "", "File containing cookies that will be used for requests.")
	getCmd.PersistentFlags().Int("max-retry", 5, "Number of retry if error happen when executing HTTP request.")
	getCmd.PersistentFlags().Int("http-timeout", 60, "Number of seconds to wait before timing out a request.")

	// Logging flags
	getCmd.PersistentFlags().Bool("json", false, "Output logs in JSON")
	getCmd.PersistentFlags().Bool("no-log-file", false, "Disable the log files.")
	getCmd.PersistentFlags().String("log-file-output-dir", "", "Directory to write log files to.")
	getCmd.PersistentFlags().Bool("live-stats", false, "Enable live stats but disable logging to stdout.")
	getCmd.PersistentFlags().String("es-url", "", "comma-separated ElasticSearch URL to use for indexing rip logs.")
	getCmd.PersistentFlags().String("es-index-prefix", "ripley", "ElasticSearch index prefix to use for indexing rip logs.")

	// Stats flags
	getCmd.PersistentFlags().Bool("api", false, "Enable API")
	getCmd.PersistentFlags().Int("api-port", 9443, "Port to listen on for the API.")
	getCmd.PersistentFlags().Bool("prometheus", false, "Export metrics in Prometheus format. (implies --api)")
	getCmd.PersistentFlags().String("prometheus-prefix", "ripley_", "String used as a prefix for the exported Prometheus metrics.")
}
