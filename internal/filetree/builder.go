package filetree

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are skipped by Build in addition to caller patterns.
var DefaultExcludes = []string{".git", ".DS_Store", "node_modules", "*.db", "*.db-wal", "*.db-shm"}

// Build walks root and returns its entries as a tree with paths relative to
// root. Directories sort before files, then by name. Patterns are
// doublestar globs matched against the relative path and the base name.
func Build(root string, exclude []string) ([]*Node, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("filetree: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filetree: %s is not a directory", root)
	}

	patterns := append(append([]string{}, DefaultExcludes...), exclude...)
	return build(root, "", patterns)
}

func build(root, rel string, patterns []string) ([]*Node, error) {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("filetree: read %q: %w", rel, err)
	}

	nodes := make([]*Node, 0, len(entries))
	for _, e := range entries {
		p := path.Join(rel, e.Name())
		if Excluded(p, patterns) {
			continue
		}
		if e.IsDir() {
			children, err := build(root, p, patterns)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Name: e.Name(), Type: TypeDirectory, Path: p, Children: children})
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		nodes = append(nodes, &Node{Name: e.Name(), Type: TypeFile, Path: p})
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsDir() != nodes[j].IsDir() {
			return nodes[i].IsDir()
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
	return nodes, nil
}

// Excluded reports whether rel matches any pattern, either as a full path
// or by base name.
func Excluded(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
