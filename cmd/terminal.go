package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zachkp/moto-portfolio/internal/filetree"
	"github.com/Zachkp/moto-portfolio/internal/logging"
	"github.com/Zachkp/moto-portfolio/internal/preview"
	"github.com/Zachkp/moto-portfolio/internal/terminal"
)

var (
	terminalURL  string
	terminalFile string
	terminalDir  string
)

var terminalCmd = &cobra.Command{
	Use:   "terminal",
	Short: "Browse the admin file tree in the terminal",
	Long: `Opens the admin file-tree terminal as a full-screen TUI. The tree comes
from the configured source unless --url, --file or --dir is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		src := treeSource(cfg)
		switch {
		case terminalURL != "":
			src = filetree.HTTPSource{URL: terminalURL}
		case terminalFile != "":
			src = filetree.FileSource{Path: terminalFile}
		case terminalDir != "":
			src = filetree.DirSource{Root: terminalDir, Exclude: cfg.Tree.Exclude}
			cfg.Files.Dir = terminalDir
		}

		renderer, err := preview.New(cfg.Files.Dir)
		if err != nil {
			return fmt.Errorf("opening files dir: %w", err)
		}

		// The TUI owns the screen; only log when output goes to a file.
		log := zap.NewNop()
		if out := cfg.Log.OutputPath; out != "" && out != "stdout" && out != "stderr" {
			if log, err = logging.New(cfg.Log); err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer log.Sync()
		}

		return terminal.Run(src, renderer, log)
	},
}

func init() {
	terminalCmd.Flags().StringVar(&terminalURL, "url", "", "fetch the tree document from this URL")
	terminalCmd.Flags().StringVar(&terminalFile, "file", "", "read the tree document from this file")
	terminalCmd.Flags().StringVar(&terminalDir, "dir", "", "build the tree from this directory")
	rootCmd.AddCommand(terminalCmd)
}
