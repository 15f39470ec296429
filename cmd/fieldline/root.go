package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fieldline",
	Short: "Adaptive multi-agent structured extraction",
	Long: `Fieldline turns documents into structured records.

For each document it discovers which fields are worth extracting, decides how
many extraction agents the document's size warrants, partitions the pages
across them, runs the agents concurrently, and consolidates their outputs
into a single confidence-scored record.

Records are versioned per document: reprocessing appends a new version
instead of overwriting.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
