package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/moto-portfolio/internal/filetree"
)

var (
	treeOutput  string
	treeExclude []string
)

var treeCmd = &cobra.Command{
	Use:   "tree [dir]",
	Short: "Write the file tree document for a directory",
	Long: `Walks a directory and writes the file tree document the admin terminal
reads. Exclude patterns are doublestar globs matched against the relative
path and the base name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "content"
		if len(args) == 1 {
			root = args[0]
		}

		tree, err := filetree.Build(root, treeExclude)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding tree: %w", err)
		}
		data = append(data, '\n')

		if treeOutput == "" || treeOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(treeOutput, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", treeOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d entries to %s\n", filetree.Count(tree), treeOutput)
		return nil
	},
}

func init() {
	treeCmd.Flags().StringVarP(&treeOutput, "output", "o", "", "output file (default stdout)")
	treeCmd.Flags().StringSliceVar(&treeExclude, "exclude", nil, "glob patterns to skip")
	rootCmd.AddCommand(treeCmd)
}
