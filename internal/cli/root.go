// Package cli implements the loopdeck command tree.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/loopdeck/loopdeck/internal/cli.version=1.2.3"
	version = "0.4.1"
	logo    = "\n" +
		"  _                          _           _\n" +
		" | | ___   ___  _ __   __| | ___  ___| | __\n" +
		" | |/ _ \\ / _ \\| '_ \\ / _` |/ _ \\/ __| |/ /\n" +
		" | | (_) | (_) | |_) | (_| |  __/ (__|   <\n" +
		" |_|\\___/ \\___/| .__/ \\__,_|\\___|\\___|_|\\_\\\n" +
		"               |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "loopdeck",
	Short: "loopdeck - research loop registry for autonomous agents",
	Long:  color.CyanString(logo) + "\nAn operator deck for agent research loops: track rounds, triage checkpoints, decide.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("loopdeck version")
		fmt.Printf("Version: %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loopsCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(doctorCmd)
}
