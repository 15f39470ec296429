package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldline/fieldline/internal/api"
	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/engine"
	"github.com/fieldline/fieldline/internal/state"
	"github.com/fieldline/fieldline/pkg/models"
)

var (
	runFormat string
	runNoSave bool
	runDBPath string
)

var runCmd = &cobra.Command{
	Use:   "run <document>",
	Short: "Process one document end to end",
	Long: `Process a document through the full pipeline: discover its fields,
partition its pages across extraction agents, and consolidate their outputs
into one structured record.

The document is either a .pdf file or a directory with one text file per page
(00001.txt, 00002.txt, ...). The record is stored in the local database unless
--no-save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if runFormat != "" {
			cfg.Output.Format = runFormat
		}
		if runDBPath != "" {
			cfg.Storage.DBPath = runDBPath
		}

		accessor, documentID, err := accessorFor(args[0])
		if err != nil {
			return err
		}

		var sink *state.DB
		if !runNoSave {
			sink, err = state.Open(cfg.Storage.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer sink.Close()
			if err := sink.Migrate(); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}

		var engineSink engine.Sink
		if sink != nil {
			engineSink = sink
		}

		e, discoveryClient, extractionClient, err := newEngine(cfg, accessor, engineSink)
		if err != nil {
			return err
		}

		record, err := e.Process(cmd.Context(), documentID)
		if err != nil {
			return err
		}

		if err := printRecord(record, cfg.Output.Format); err != nil {
			return err
		}
		printRunSummary(record, discoveryClient, extractionClient)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFormat, "format", "", "Output format: json or yaml")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "Do not persist the record")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "Database path override")
}

// printRecord writes the record to stdout in the requested format.
func printRecord(record *models.ConsolidatedRecord, format string) error {
	switch format {
	case "", "json":
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
	return nil
}

// recordLabel names the record for the summary line. Versions are assigned
// on save, so an unsaved record has none to report.
func recordLabel(record *models.ConsolidatedRecord) string {
	if record.Version == 0 {
		return "record (unsaved)"
	}
	return fmt.Sprintf("record v%d", record.Version)
}

// printRunSummary reports flags and token usage on stderr so stdout stays
// machine-readable.
func printRunSummary(record *models.ConsolidatedRecord, clients ...*api.Client) {
	status := color.GreenString("ok")
	switch {
	case record.HasFlag(models.RecordFlagPartial):
		status = color.YellowString("partial")
	case record.HasFlag(models.RecordFlagDegraded):
		status = color.YellowString("degraded")
	case record.HasFlag(models.RecordFlagMissingRequired):
		status = color.YellowString("missing required fields")
	}

	var input, output int64
	var cost float64
	seen := map[*api.Client]bool{}
	for _, c := range clients {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		in, out := c.Tracker().Total()
		input += in
		output += out
		cost += c.Tracker().Cost()
	}

	fmt.Fprintf(os.Stderr, "\n%s %s: %d fields, %d agents, status %s\n",
		color.CyanString("▸"), recordLabel(record), len(record.Fields), len(record.Outcomes), status)
	fmt.Fprintf(os.Stderr, "%s tokens: %d in / %d out (est. $%.4f)\n",
		color.CyanString("▸"), input, output, cost)
}
