/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <path.bel>",
	Short: "Register a dictionary file on the bookshelf",
	Long: `Opens the .bel file at path, along with any sibling .beld resource
files and CSS/JS sidecars, and registers it under a handle that
persists across CLI invocations.

Example:
  beluga add ./dicts/english.bel`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shelf := bookshelfFromContext(cmd)
		st := stateFromContext(cmd)

		handle, metadata, err := shelf.Add(args[0])
		if err != nil {
			return fmt.Errorf("failed to add dictionary: %w", err)
		}
		if err := st.RegisterDictionary(handle, args[0]); err != nil {
			return fmt.Errorf("failed to persist handle: %w", err)
		}

		fmt.Printf("handle=%d entries=%d author=%q\n", handle, metadata.EntryNum, metadata.Author)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
