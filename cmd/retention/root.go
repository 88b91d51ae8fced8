package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "retention",
	Short: "Retention runs simulated DRAM data-retention sweeps.",
	Long: `Retention runs simulated DRAM data-retention sweeps. It can run a ` +
		`sweep, decode the serial records a sweep produced, print timing ` +
		`presets and query recorded results.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
