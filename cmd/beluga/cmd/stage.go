/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/beluga/pkg/staging"
)

// stagedRecord is one line of a stage input file.
type stagedRecord struct {
	Name       string   `json:"name"`
	Value      string   `json:"value"`
	Alternates []string `json:"alternates,omitempty"`
}

// stageCmd represents the stage command
var stageCmd = &cobra.Command{
	Use:   "stage <input.jsonl>",
	Short: "Bulk-ingest raw entries/tokens into the append-only staging store",
	Long: `Reads newline-delimited JSON records ({"name","value","alternates"})
from input and appends them to the staging store at --staging-dir,
ready for "beluga build" to fold into a dictionary file.

Example:
  beluga stage ./raw/english.jsonl --staging-dir ./staging`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stagingDir, _ := cmd.Flags().GetString("staging-dir")
		if !cmd.Flags().Changed("staging-dir") {
			stagingDir = configFromContext(cmd).Build.StagingDir
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()

		st, err := staging.Open(stagingDir)
		if err != nil {
			return fmt.Errorf("failed to open staging store: %w", err)
		}
		defer st.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		count := 0
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var rec stagedRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("invalid record on line %d: %w", count+1, err)
			}
			if len(rec.Alternates) > 0 {
				if err := st.InsertToken(rec.Name, rec.Alternates); err != nil {
					return fmt.Errorf("failed to stage token %q: %w", rec.Name, err)
				}
			} else {
				if err := st.InsertEntry(rec.Name, []byte(rec.Value)); err != nil {
					return fmt.Errorf("failed to stage entry %q: %w", rec.Name, err)
				}
			}
			count++
			if count%1000 == 0 {
				fmt.Printf("staged %d records\n", count)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed reading input: %w", err)
		}

		fmt.Printf("staged %d records total\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
	stageCmd.Flags().String("staging-dir", "./staging", "Directory holding the append-only staging logs")
}
