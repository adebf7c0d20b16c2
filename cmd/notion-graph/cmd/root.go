// Package cmd provides CLI commands for notion-graph.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robinkct/notion-account-graph/pkg/config"
	"github.com/robinkct/notion-account-graph/pkg/expense"
	"github.com/robinkct/notion-account-graph/pkg/pathutil"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "notion-graph",
	Short: "Sync Notion expense records and publish pie charts",
	Long: `notion-graph is a CLI tool that pulls expense records from a Notion
database, aggregates them per event and per month, renders pie charts
and attaches the uploaded charts back onto the Notion bucket pages.

It supports:
- Incremental syncs with an append-only local snapshot
- Attribute and category pies split per party
- Upload deduplication via a CSV ledger
- Sync statistics backed by SQLite

Example:
  notion-graph sync
  notion-graph redraw --title "Okinawa Trip"
  notion-graph stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(redrawCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

// loadMapping loads the schema mapping, falling back to defaults when no
// mapping file is configured.
func loadMapping(cfg *config.Config) (*expense.Mapping, error) {
	if cfg.Data.MappingFile == "" {
		return expense.DefaultMapping(), nil
	}
	return expense.LoadMapping(cfg.Data.MappingFile)
}

// newResolver builds the path resolver for the configured data directory.
func newResolver(cfg *config.Config, mapping *expense.Mapping) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataDir:      cfg.Data.Dir,
		DatabasePath: cfg.Data.DBPath,
		MonthMarker:  mapping.MonthMarker,
	})
}
