package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldline/fieldline/internal/config"
	"github.com/fieldline/fieldline/internal/state"
)

var (
	recordsDBPath  string
	recordsVersion int
	recordsFormat  string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list [document-id]",
	Short: "List stored records, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRecordsDB()
		if err != nil {
			return err
		}
		defer db.Close()

		documentID := ""
		if len(args) == 1 {
			documentID = args[0]
		}

		summaries, err := db.ListRecords(documentID)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("no records")
			return nil
		}

		fmt.Printf("%-40s %-8s %-10s %-8s %-20s %s\n",
			"DOCUMENT", "VERSION", "RUN", "FIELDS", "CREATED", "FLAGS")
		for _, s := range summaries {
			flags := strings.Join(s.Flags, ",")
			if flags != "" {
				flags = color.YellowString(flags)
			}
			fmt.Printf("%-40s %-8d %-10s %-8d %-20s %s\n",
				s.DocumentID, s.Version, s.RunID, s.FieldCount, s.CreatedAt, flags)
		}
		return nil
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show one record (latest version by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRecordsDB()
		if err != nil {
			return err
		}
		defer db.Close()

		record, err := db.GetRecord(args[0], recordsVersion)
		if err != nil {
			return err
		}
		return printRecord(record, recordsFormat)
	},
}

func openRecordsDB() (*state.DB, error) {
	path := recordsDBPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.Storage.DBPath
	}

	db, err := state.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func init() {
	recordsCmd.PersistentFlags().StringVar(&recordsDBPath, "db", "", "Database path override")
	recordsShowCmd.Flags().IntVar(&recordsVersion, "version", 0, "Record version (0 = latest)")
	recordsShowCmd.Flags().StringVar(&recordsFormat, "format", "json", "Output format: json or yaml")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
}
