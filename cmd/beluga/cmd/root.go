/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ssargent/beluga/pkg/bookshelf"
	"github.com/ssargent/beluga/pkg/config"
	"github.com/ssargent/beluga/pkg/di"
	"github.com/ssargent/beluga/pkg/state"
)

type ctxKey int

const (
	ctxKeyConfig ctxKey = iota
	ctxKeyBookshelf
	ctxKeyState
)

var container *di.Container

// SetContainer injects the dependency container main() builds.
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "beluga",
	Short: "Beluga - offline dictionary engine",
	Long: `Beluga builds, persists, and queries compact on-disk dictionary
files: prefix search, exact lookup with case-fold fallback, redirect
chasing, and resource retrieval, organized into a bookshelf of
side-by-side dictionaries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			container = di.NewContainer()
		}

		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		var cfg *config.Config
		if configPath != "" && config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		st, err := state.Open(cfg.DataDir + "/state.db")
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}

		shelf := container.GetBookshelfFactory().CreateBookshelf(cfg)
		if err := reopenRegistered(shelf, st); err != nil {
			return err
		}

		ctx := cmd.Context()
		ctx = context.WithValue(ctx, ctxKeyConfig, cfg)
		ctx = context.WithValue(ctx, ctxKeyBookshelf, shelf)
		ctx = context.WithValue(ctx, ctxKeyState, st)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if st, ok := cmd.Context().Value(ctxKeyState).(*state.Store); ok {
			return st.Close()
		}
		return nil
	},
}

// reopenRegistered re-adds every previously registered dictionary in
// ascending handle order, so a Bookshelf's freshly assigned handles
// (which start at 0 and increment) line up with the handles a prior
// CLI invocation handed out. This only holds as long as no dictionary
// has been removed in between: Bookshelf hands out compact handles on
// every process start, so a removal leaves a gap that renumbers every
// dictionary after it. When a dictionary comes back under a different
// handle, its registration is moved to that handle, so the state store
// keeps matching this process's handles and a later "add" (which
// registers the next Bookshelf handle) never overwrites it.
func reopenRegistered(shelf *bookshelf.Bookshelf, st *state.Store) error {
	registered, err := st.ListDictionaries()
	if err != nil {
		return fmt.Errorf("failed to list registered dictionaries: %w", err)
	}
	handles := make([]uint32, 0, len(registered))
	for h := range registered {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, h := range handles {
		path := registered[h]
		got, _, err := shelf.Add(path)
		if err != nil {
			log.Printf("beluga: could not reopen %s (handle %d): %v", path, h, err)
			continue
		}
		if got != h {
			if err := st.RemoveDictionary(h); err != nil {
				return fmt.Errorf("failed to move handle %d: %w", h, err)
			}
			if err := st.RegisterDictionary(got, path); err != nil {
				return fmt.Errorf("failed to move handle %d: %w", h, err)
			}
		}
	}
	return nil
}

func bookshelfFromContext(cmd *cobra.Command) *bookshelf.Bookshelf {
	return cmd.Context().Value(ctxKeyBookshelf).(*bookshelf.Bookshelf)
}

func configFromContext(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(ctxKeyConfig).(*config.Config)
}

func stateFromContext(cmd *cobra.Command) *state.Store {
	return cmd.Context().Value(ctxKeyState).(*state.Store)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for engine state")
	rootCmd.PersistentFlags().String("config", "", "Path to a beluga config file (optional)")
}
