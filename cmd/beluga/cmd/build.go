/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/beluga/pkg/builder"
	"github.com/ssargent/beluga/pkg/dictfile"
	"github.com/ssargent/beluga/pkg/staging"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <dest.bel>",
	Short: "Fold a staging store into a single dictionary file",
	Long: `Replays every staged entry and token record, in ingestion order,
into an entry tree and a token tree, then writes dest as a single
dictionary file. Refuses to overwrite an existing dest.

Example:
  beluga build ./dicts/english.bel --staging-dir ./staging --author "A. Student"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stagingDir, _ := cmd.Flags().GetString("staging-dir")
		author, _ := cmd.Flags().GetString("author")
		email, _ := cmd.Flags().GetString("email")
		comment, _ := cmd.Flags().GetString("comment")

		cfg := configFromContext(cmd)
		if !cmd.Flags().Changed("staging-dir") {
			stagingDir = cfg.Build.StagingDir
		}
		b := builder.New(
			dictfile.Metadata{Version: "1", Author: author, Email: email, Comment: comment},
			cfg.Build.IndexNodeSizeBytes,
			cfg.Build.LeafNodeSizeBytes,
		)

		st, err := staging.Open(stagingDir)
		if err != nil {
			return fmt.Errorf("failed to open staging store: %w", err)
		}
		defer st.Close()

		entryCount, err := foldEntries(b, st, stagingDir)
		if err != nil {
			return err
		}
		tokenCount, err := foldTokens(b, st, stagingDir)
		if err != nil {
			return err
		}

		if err := b.Save(args[0]); err != nil {
			return fmt.Errorf("failed to save dictionary: %w", err)
		}
		fmt.Printf("wrote %s: %d entries, %d tokens\n", args[0], entryCount, tokenCount)
		return nil
	},
}

func foldEntries(b *builder.Builder, st *staging.Staging, stagingDir string) (int, error) {
	it, err := st.IterEntries(stagingDir)
	if err != nil {
		return 0, fmt.Errorf("failed to iterate staged entries: %w", err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		b.InputEntry(it.Name(), it.Value())
		count++
		if count%1000 == 0 {
			fmt.Printf("folded %d entries\n", count)
		}
	}
	return count, nil
}

func foldTokens(b *builder.Builder, st *staging.Staging, stagingDir string) (int, error) {
	it, err := st.IterTokens(stagingDir)
	if err != nil {
		return 0, fmt.Errorf("failed to iterate staged tokens: %w", err)
	}
	defer it.Close()

	count := 0
	for it.Next() {
		b.InputToken(it.Name(), it.Alternates())
		count++
	}
	return count, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("staging-dir", "./staging", "Directory holding the append-only staging logs")
	buildCmd.Flags().String("author", "", "Metadata author field")
	buildCmd.Flags().String("email", "", "Metadata email field")
	buildCmd.Flags().String("comment", "", "Metadata comment field")
}
