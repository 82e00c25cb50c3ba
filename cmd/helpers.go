package cmd

import (
	"fmt"

	"github.com/Zachkp/moto-portfolio/internal/config"
	"github.com/Zachkp/moto-portfolio/internal/filetree"
)

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// treeSource picks where the admin terminal's file tree comes from.
func treeSource(cfg *config.Config) filetree.Source {
	switch cfg.Tree.Source {
	case config.TreeFromURL:
		return filetree.HTTPSource{URL: cfg.Tree.URL}
	case config.TreeFromFile:
		return filetree.FileSource{Path: cfg.Tree.File}
	default:
		return filetree.DirSource{Root: cfg.Files.Dir, Exclude: cfg.Tree.Exclude}
	}
}
