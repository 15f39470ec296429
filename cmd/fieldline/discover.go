package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldline/fieldline/internal/config"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <document>",
	Short: "Discover a document's extractable fields",
	Long: `Run only the discovery phase: sample the document's pages and report
the field specifications that a full run would extract. Nothing is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		accessor, documentID, err := accessorFor(args[0])
		if err != nil {
			return err
		}

		e, _, _, err := newEngine(cfg, accessor, nil)
		if err != nil {
			return err
		}

		specs, err := e.DiscoverFields(cmd.Context(), documentID)
		if err != nil {
			return err
		}

		fmt.Printf("%s %d fields discovered in %s\n\n",
			color.CyanString("▸"), len(specs), documentID)
		for _, spec := range specs {
			marker := " "
			if spec.Required {
				marker = color.YellowString("*")
			}
			fmt.Printf("%s %-28s %-10s %s\n", marker, spec.Name, spec.Type, spec.Description)
			if len(spec.ValidationRules) > 0 {
				fmt.Printf("  %s %s\n", color.HiBlackString("rules:"), strings.Join(spec.ValidationRules, "; "))
			}
		}
		return nil
	},
}
