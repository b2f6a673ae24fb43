/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <handle> <name>",
	Short: "Exact entry lookup, following @@@LINK= redirects",
	Long: `Get performs an exact lookup of name against the dictionary
registered under handle, following redirects for at most three
lookups in total (name plus up to two redirect targets).

Example:
  beluga get 0 apple`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid handle %q: %w", args[0], err)
		}

		shelf := bookshelfFromContext(cmd)
		value, ok := shelf.SearchEntry(uint32(handle), args[1])
		if !ok {
			return fmt.Errorf("no entry for %q", args[1])
		}
		fmt.Println(value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
