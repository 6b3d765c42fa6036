package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sahelgroup/recon-cli/internal/fetcher"
	"github.com/sahelgroup/recon-cli/internal/resolve"
	"github.com/sahelgroup/recon-cli/internal/tabular"
)

var (
	headersFile    string
	headersSheet   string
	headersAliases string
)

// headersCmd is an operator debugging aid: it shows which row was picked
// as the header and how the canonical identity fields resolve against it.
var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "Show detected header row and resolved identity fields for a file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, err := newResolver(headersAliases)
		if err != nil {
			return err
		}

		grid, err := fetcher.ReadGrid(headersFile, fetcher.Options{SheetName: headersSheet})
		if err != nil {
			return err
		}
		if len(grid) == 0 {
			return eris.Errorf("headers: %s contains no rows", headersFile)
		}

		headerIdx := tabular.DetectHeader(grid)
		entries := tabular.ToEntries(grid, headerIdx)

		fmt.Fprintf(os.Stdout, "file:        %s\n", headersFile)
		fmt.Fprintf(os.Stdout, "header row:  %d\n", headerIdx)
		fmt.Fprintf(os.Stdout, "data rows:   %d\n", len(entries))

		if len(entries) == 0 {
			return nil
		}

		first := entries[0]
		fmt.Fprintf(os.Stdout, "columns:     %v\n", first.Keys())
		fmt.Fprintf(os.Stdout, "ssid:        %q\n", resolver.Field(first, resolve.FieldSSID))
		fmt.Fprintf(os.Stdout, "nin:         %q\n", resolver.Field(first, resolve.FieldNIN))
		fmt.Fprintf(os.Stdout, "full name:   %q\n", resolver.FullName(first))
		return nil
	},
}

func init() {
	headersCmd.Flags().StringVar(&headersFile, "file", "", "file to inspect, .csv or .xlsx (required)")
	headersCmd.Flags().StringVar(&headersSheet, "sheet", "", "XLSX sheet name")
	headersCmd.Flags().StringVar(&headersAliases, "aliases", "", "YAML field-alias file")
	_ = headersCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(headersCmd)
}
