/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <handle>",
	Short: "Close and drop a dictionary from the bookshelf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid handle %q: %w", args[0], err)
		}

		bookshelfFromContext(cmd).Remove(uint32(handle))
		if err := stateFromContext(cmd).RemoveDictionary(uint32(handle)); err != nil {
			return fmt.Errorf("failed to forget handle: %w", err)
		}
		fmt.Printf("removed handle %d\n", handle)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
