/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <handle> <word>",
	Short: "Prefix search (with alternate-spelling expansion) a dictionary",
	Long: `Runs a prefix scan of the entry tree, plus token-tree expansion
when the dictionary has alternates for word, against the dictionary
registered under handle.

Example:
  beluga search 0 appl --prefix-limit=10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid handle %q: %w", args[0], err)
		}
		strict, _ := cmd.Flags().GetBool("strict")
		prefixLimit, _ := cmd.Flags().GetInt("prefix-limit")
		phraseLimit, _ := cmd.Flags().GetInt("phrase-limit")

		shelf := bookshelfFromContext(cmd)
		results := shelf.Search(uint32(handle), args[1], strict, prefixLimit, phraseLimit)
		for _, r := range results {
			fmt.Println(r)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Bool("strict", false, "Require a raw-case prefix match, not just case-folded")
	searchCmd.Flags().Int("prefix-limit", 20, "Maximum number of prefix results")
	searchCmd.Flags().Int("phrase-limit", 20, "Maximum number of token-expansion results")
}
