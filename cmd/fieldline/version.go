package main

import (
	"fmt"

	"github.com/fieldline/fieldline/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fieldline version %s\n", version.Get())
	},
}
