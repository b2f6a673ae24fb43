/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// resizeCacheCmd represents the resize-cache command
var resizeCacheCmd = &cobra.Command{
	Use:   "resize-cache <capacity-bytes>",
	Short: "Resize the shared node cache, evicting as needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid capacity %q: %w", args[0], err)
		}
		bookshelfFromContext(cmd).ResizeCache(capacity)
		fmt.Printf("cache resized to %d bytes\n", capacity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resizeCacheCmd)
}
