package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getURLCmd = &cobra.Command{
	Use:   "url [URL...]",
	Short: "Rip the albums at the given URLs",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(_ *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("viper config is nil")
		}

		if len(args) == 0 {
			return fmt.Errorf("no URLs provided")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.InputSeeds = append(cfg.InputSeeds, args...)

		return run(cmd.Context(), cfg)
	},
}
