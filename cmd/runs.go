package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sahelgroup/recon-cli/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved reconciliation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "runs: open store")
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{Limit: runsLimit})
		if err != nil {
			return err
		}

		for _, run := range runs {
			fmt.Fprintf(os.Stdout, "%s  %s  total=%d valid=%d partial=%d invalid=%d  %s\n",
				run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"),
				run.Summary.Total, run.Summary.Valid,
				run.Summary.PartialMatch, run.Summary.Invalid,
				run.InputFile,
			)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one saved run as JSON, including per-record results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "runs: open store")
		}
		defer st.Close()

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(run), "runs: encode run")
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
