package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "moto-portfolio",
	Short: "Motorcycle-themed personal portfolio",
	Long: `moto-portfolio serves a personal portfolio behind a "who's riding?"
profile picker. Picking a profile starts the engine, and the rev gauge
lands the visitor on the page for their role: a spec sheet for recruiters,
the garage for everyone else and a file-tree terminal for the admin.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "portfolio.yml", "config file path")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
