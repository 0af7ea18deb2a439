package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var getListCmd = &cobra.Command{
	Use:   "list [FILE]",
	Short: "Rip every album listed in a file, one URL per line",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("viper config is nil")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		seeds, err := readSeedList(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}

		if len(seeds) == 0 {
			return fmt.Errorf("no URL found in %s", args[0])
		}

		cfg.InputSeeds = append(cfg.InputSeeds, seeds...)

		return run(cmd.Context(), cfg)
	},
}

// readSeedList returns the non-empty lines of a file, lines starting
// with # are comments
func readSeedList(fs afero.Fs, path string) ([]string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("unable to read seed list: %w", err)
	}

	var seeds []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}

	return seeds, nil
}
