package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahelgroup/recon-cli/internal/export"
	"github.com/sahelgroup/recon-cli/internal/fetcher"
	"github.com/sahelgroup/recon-cli/internal/reconcile"
	"github.com/sahelgroup/recon-cli/internal/store"
)

var (
	validateSource      string
	validateInput       string
	validateOutput      string
	validateFormat      string
	validateSourceSheet string
	validateInputSheet  string
	validateAliases     string
	validateThreshold   int
	validateAbsence     string
	validateSave        bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Reconcile a candidate file against a source-of-truth file",
	Long: `Reads two tabular files (CSV or XLSX), detects their header rows, and
validates every candidate record against the source dataset: exact SSID/NIN
index lookup plus fuzzy full-name comparison.

Examples:
  # Validate a CSV against an XLSX source, results to stdout
  recon-cli validate --source truth.xlsx --input batch.csv

  # Write an XLSX report and persist the run
  recon-cli validate --source truth.xlsx --input batch.csv \
    --output results.xlsx --save`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		resolver, err := newResolver(validateAliases)
		if err != nil {
			return err
		}

		ec, err := engineConfig()
		if err != nil {
			return err
		}
		if validateThreshold > 0 {
			ec.SimilarityThreshold = validateThreshold
		}
		if validateAbsence != "" {
			ec.AbsencePolicy = reconcile.AbsencePolicy(validateAbsence)
		}
		engine := reconcile.NewEngine(ec, resolver)

		source, sourceHeader, err := fetcher.LoadEntries(validateSource, fetcher.Options{SheetName: validateSourceSheet})
		if err != nil {
			return eris.Wrap(err, "validate: load source")
		}
		candidates, inputHeader, err := fetcher.LoadEntries(validateInput, fetcher.Options{SheetName: validateInputSheet})
		if err != nil {
			return eris.Wrap(err, "validate: load input")
		}

		zap.L().Info("datasets loaded",
			zap.Int("source_records", len(source)),
			zap.Int("candidate_records", len(candidates)),
			zap.Int("source_header_row", sourceHeader),
			zap.Int("input_header_row", inputHeader),
		)

		if max := cfg.Limits.MaxSourceRecords; max > 0 && len(source) > max {
			return eris.Errorf("validate: source has %d records, limit is %d", len(source), max)
		}
		if max := cfg.Limits.MaxCandidateRecords; max > 0 && len(candidates) > max {
			return eris.Errorf("validate: input has %d records, limit is %d", len(candidates), max)
		}

		outcome, err := engine.Run(ctx, source, candidates)
		if err != nil {
			return err
		}

		if err := writeResults(outcome); err != nil {
			return err
		}

		if validateSave {
			st, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return eris.Wrap(err, "validate: open store")
			}
			defer st.Close()

			run, err := outcome.ToRun(validateSource, validateInput)
			if err != nil {
				return err
			}
			if err := st.CreateRun(ctx, run); err != nil {
				return eris.Wrap(err, "validate: persist run")
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		printSummary(outcome)
		return nil
	},
}

func writeResults(outcome *reconcile.Outcome) error {
	format := validateFormat
	if format == "" {
		if strings.EqualFold(filepath.Ext(validateOutput), ".xlsx") {
			format = "xlsx"
		} else {
			format = "csv"
		}
	}

	switch format {
	case "csv":
		if validateOutput == "" {
			return export.WriteCSV(os.Stdout, outcome.Entries)
		}
		f, err := os.Create(validateOutput)
		if err != nil {
			return eris.Wrapf(err, "validate: create %s", validateOutput)
		}
		defer f.Close()
		return export.WriteCSV(f, outcome.Entries)
	case "xlsx":
		if validateOutput == "" {
			return eris.New("validate: --output is required for xlsx format")
		}
		return export.WriteXLSX(validateOutput, "Results", outcome.Entries)
	default:
		return eris.Errorf("validate: unknown format %q (want csv or xlsx)", format)
	}
}

func printSummary(outcome *reconcile.Outcome) {
	fmt.Fprintf(os.Stderr, "\nTotal: %d  Valid: %d  Partial Match: %d  Invalid: %d\n",
		outcome.Summary.Total, outcome.Summary.Valid,
		outcome.Summary.PartialMatch, outcome.Summary.Invalid,
	)
	for _, w := range outcome.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func init() {
	validateCmd.Flags().StringVar(&validateSource, "source", "", "source-of-truth file, .csv or .xlsx (required)")
	validateCmd.Flags().StringVar(&validateInput, "input", "", "file to validate, .csv or .xlsx (required)")
	validateCmd.Flags().StringVar(&validateOutput, "output", "", "results file; stdout CSV when omitted")
	validateCmd.Flags().StringVar(&validateFormat, "format", "", "output format: csv or xlsx (default from --output extension)")
	validateCmd.Flags().StringVar(&validateSourceSheet, "source-sheet", "", "XLSX sheet name for the source file")
	validateCmd.Flags().StringVar(&validateInputSheet, "input-sheet", "", "XLSX sheet name for the input file")
	validateCmd.Flags().StringVar(&validateAliases, "aliases", "", "YAML field-alias file merged over built-in header spellings")
	validateCmd.Flags().IntVar(&validateThreshold, "threshold", 0, "name similarity threshold 1-100 (default from config)")
	validateCmd.Flags().StringVar(&validateAbsence, "absence-policy", "", "identifier absence policy: lenient or strict")
	validateCmd.Flags().BoolVar(&validateSave, "save", false, "persist the run to the run store")
	_ = validateCmd.MarkFlagRequired("source")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
