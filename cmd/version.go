package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/internetarchive/Ripley/internal/pkg/utils"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version number",
	Run: func(cmd *cobra.Command, args []string) {
		version := utils.GetVersion()

		fmt.Println("Ripley", version.Version)
		fmt.Println("- go/version:", version.GoVersion)
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show the dependencies",
	Run: func(cmd *cobra.Command, args []string) {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, dep := range info.Deps {
				fmt.Printf("%s %s (%s)", dep.Path, dep.Version, dep.Sum)
				if dep.Replace != nil {
					fmt.Printf(" => %s %s (%s)\n", dep.Replace.Path, dep.Replace.Version, dep.Replace.Sum)
				} else {
					fmt.Print("\n")
				}
			}
		}
	},
}

func init() {
	versionCmd.AddCommand(depsCmd)
}
