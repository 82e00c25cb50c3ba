package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/moto-portfolio/internal/config"
	"github.com/Zachkp/moto-portfolio/internal/content"
	"github.com/Zachkp/moto-portfolio/internal/profile"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the portfolio configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long:  `Prints the configuration after the file, legacy environment variables and PORTFOLIO_* overrides are applied. Secrets are omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file populated with defaults",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(cfgFile); err == nil {
			exitOnError(fmt.Errorf("%s already exists", cfgFile))
		}
		cfg := config.DefaultConfig()
		cfg.Profiles = profile.DefaultProfiles()
		cfg.Content = content.Default()
		exitOnError(cfg.Save(cfgFile))
		fmt.Printf("Wrote %s\n", cfgFile)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
