/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// resourceCmd represents the resource command
var resourceCmd = &cobra.Command{
	Use:   "resource <handle> <name>",
	Short: "Fetch a resource (image, audio, etc.) from a dictionary",
	Long: `Fetches a resource by name and writes its bytes to stdout. name
may be "{id}//{name}" to restrict the lookup to one resource file's
captured id; otherwise every resource file is consulted and the first
hit wins.

Example:
  beluga resource 0 pronunciation.mp3 > out.mp3
  beluga resource 0 hd//cover.png > cover.png`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid handle %q: %w", args[0], err)
		}

		shelf := bookshelfFromContext(cmd)
		value, ok := shelf.SearchResource(uint32(handle), args[1])
		if !ok {
			return fmt.Errorf("no resource for %q", args[1])
		}
		_, err = os.Stdout.Write(value)
		return err
	},
}

func init() {
	rootCmd.AddCommand(resourceCmd)
}
